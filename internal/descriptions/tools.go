package descriptions

import "sort"

// Tool names exposed by the MCP server.
const (
	DecodeFileTool    = "certificate_decode_file"
	DecodePayloadTool = "certificate_decode_payload"
	ParseRecordTool   = "certificate_parse_record"
	ServerInfoTool    = "certificate_server_info"
)

const (
	DecodeFileDescription = `Decode a vaccination certificate file and verify its issuer signature.

**When to use:** You have a certificate as a file: the issued PDF, a photo or scan of the QR code, the text scanned from the QR code, the raw 256-byte signed block, or an already verified record line.

**Input types:** auto (default, detected from the file content), pdf, image, base64, encrypted, plaintext.

**Examples:**
• Check a downloaded certificate: path "certificate.pdf"
• Check a phone photo of the QR code: path "scan.jpg", type "image"
• Check a saved QR payload: path "payload.txt"

**Result:** "Valid vaccination certificate" or "Expired vaccination certificate" followed by the record fields (Id, Version, IssueDate, Names, FirstSurnameInitial, ShortBirthdate, CertificateExpiration, VaccineType). Use format "json" for a machine readable document.

**Notes:** Relative paths resolve against the configured directory and paths outside it are rejected. In a PDF the first image holding a decodable QR code wins. A signature that does not verify is reported as a crypto error.`

	DecodePayloadDescription = `Verify the text scanned from a certificate QR code.

**When to use:** A QR scanner already gave you the code text, which looks like "1;" followed by base64.

**Examples:**
• Verify scanner output: text "1;RuLm3cblHwZsdT1y..."

**Result:** Same as certificate_decode_file. Payload versions other than 1 are rejected with their version number.`

	ParseRecordDescription = `Parse a plaintext certificate record without verifying a signature.

**When to use:** You hold the semicolon separated record recovered from a certificate and only need it split into fields.

**Examples:**
• "123456;1;20-01-2021;Anna Kowalska;M;17-04;20-01-2022;321"

**Result:** The record fields and whether the certificate has expired. Parsing stops at the first missing or malformed field and names it.`

	ServerInfoDescription = `Get server configuration, available tools and supported input types.

**When to use:** To find the configured certificate directory, the issuer key in use and the PDF backend before calling the other tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	DecodeFileTool:    DecodeFileDescription,
	DecodePayloadTool: DecodePayloadDescription,
	ParseRecordTool:   ParseRecordDescription,
	ServerInfoTool:    ServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted names of all tools
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
