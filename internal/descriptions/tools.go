package descriptions

import "sort"

// Tool names exposed by the MCP shell
const (
	ExtractFolderTool = "fds_extract_folder"
	ExtractFileTool   = "fds_extract_file"
	ProductCodeTool   = "fds_product_code"
)

// Tool descriptions with practical examples
const (
	ExtractFolderDescription = `Extract hazard labels from every safety data sheet PDF below a folder.

**When to use:** Auditing a batch of SDS/FDS documents for CLP hazard statements or the categories they map to.

**Why it's useful:** Walks sub-folders in a stable order, searches the text layer for whole-word hazard codes and returns one record per PDF, even for files that cannot be opened.

**Examples:**
• Raw codes: "List the H-codes found on the first page of every sheet in /sds/2024"
• Mapped categories: "Which sheets under /sds need a flammable pictogram, using clp_codes.csv"

**Output:** JSON array of {pdf, code, labels, error?}. Labels are sorted; code is parsed from the file name ("???" when it has no delimiter).

**Best practices:** Use mode=raw when no mapping table is at hand; pages accepts "0,1" or "all".`

	ExtractFileDescription = `Extract hazard labels from a single safety data sheet PDF.

**When to use:** Checking one document, or re-running a file that reported an error in a folder run.

**Output:** one JSON record {pdf, code, labels, error?} inside an array, same schema as fds_extract_folder.

**Best practices:** Relative paths are resolved against the server directory.`

	ProductCodeDescription = `Parse the product code from a safety data sheet file name.

**When to use:** Predicting the code column before running an extraction, or checking naming conventions.

**Rules:** "_", "-" and " " all act as delimiters and the first segment is the code. "H225-ProductX.pdf" gives "H225"; "unlabeled.pdf" gives "???".`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ExtractFolderTool: ExtractFolderDescription,
	ExtractFileTool:   ExtractFileDescription,
	ProductCodeTool:   ProductCodeDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted tool names
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
