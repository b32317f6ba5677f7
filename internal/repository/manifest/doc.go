// Package manifest implements reading and writing flatpak manifests on disk.
//
// The FileRepository decodes JSON or YAML into a manifest.Document and writes it
// back in the same format. YAML output uses an explicitly passed YAMLStyle;
// JSON output follows the layout of Python's json.dump with indent=4 so that
// manifests maintained by other tooling do not churn.
package manifest
