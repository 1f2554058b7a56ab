package recognition

import (
	"fmt"
	"strings"
)

// ExtractionInstruction asks for the raw label fields.
const ExtractionInstruction = "Analyze the image of a device label. Extract brand, model, and serial number. " +
	"Respond with a JSON object containing 'brand', 'model', and 'serialNumber'. " +
	"Return empty strings for missing fields."

// Categories is the device type vocabulary suggested to the enrichment
// stage. Replies outside it are accepted as is.
var Categories = []string{"PC", "Laptop", "Printer", "Monitor", "Keyboard", "Mouse", "Server", "Router", "Switch", "Other"}

// ExtractionSchema requires the three label fields as strings.
var ExtractionSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"brand":        {Type: "STRING", Description: "Device brand or manufacturer name."},
		"model":        {Type: "STRING", Description: "Device model name or number."},
		"serialNumber": {Type: "STRING", Description: "Device serial number (S/N)."},
	},
	Required: []string{"brand", "model", "serialNumber"},
}

// BuildEnrichmentPrompt builds the search-grounded lookup for brand and model.
func BuildEnrichmentPrompt(brand, model string) string {
	return fmt.Sprintf(`Using Google Search, find the full product name and category for a device with brand %q and model %q.
The category should be a single word like: %s.
Respond with ONLY the full product name, a semicolon, and then the category.
Example: HP LaserJet Pro M404dn;Printer`, brand, model, strings.Join(Categories, ", "))
}
