package compliance

import "strings"

// Pseudo-element names for the CAN termination requirement. They never match
// BOM row titles directly; the structural engine detects them in row
// descriptions and rewrites them to identifier-qualified labels.
const (
	elementCANWith = "with CAN termination"
	elementCANWo   = "wo CAN termination"
)

func isCANPseudoElement(name string) bool {
	return name == elementCANWith || name == elementCANWo
}

func canElementFor(opts Options) string {
	if opts.Resistor {
		return elementCANWith
	}
	return elementCANWo
}

// requiredElements builds the BOM element requirement list for a
// classification. An empty result means the catalog defines no structural
// rules for the key.
func requiredElements(cls Classification) []ElementRequirement {
	if cls.Family.IsLegacy() {
		return legacyElements(cls)
	}

	var names []string
	switch cls.Kind {
	case KindRadar:
		switch cls.Variant {
		case VariantX, VariantSC:
			names = []string{"Dataset", "Software", "Boot Software", canElementFor(cls.Options)}
		case VariantR:
			names = []string{"Dataset", "Software", "Boot Software"}
			if cls.Options.Bracket {
				names = append(names, "Screw", "Bracket", "Nut")
			}
			names = append(names, canElementFor(cls.Options))
		}
	case KindCamera:
		switch cls.Variant {
		case VariantX, VariantSC, VariantR:
			names = []string{"Dataset", "Software", "Boot Software", "Camera"}
		}
	case KindBracket:
		switch cls.Family {
		case FamilyFLR25Bracket:
			if cls.Options.Aftermarket {
				names = []string{"Screw", "Bracket", "Nut"}
			} else {
				names = []string{"Bracket", "Nut"}
			}
		case FamilyFLC25Bracket:
			names = []string{"Bracket", "Bracket Assembly", "Worm", "Tape"}
		}
	case KindCover:
		names = []string{"Cover"}
	}

	reqs := make([]ElementRequirement, 0, len(names))
	for _, n := range names {
		reqs = append(reqs, ElementRequirement{
			Name:             n,
			Quantity:         expectedQuantity(cls, n),
			MatchDescription: isCANPseudoElement(n),
		})
	}
	return reqs
}

func legacyElements(cls Classification) []ElementRequirement {
	var names []string
	switch cls.Kind {
	case KindRadar:
		switch cls.Variant {
		case VariantX:
			names = []string{"Radar", "Software", "Dataset", "Label"}
		case VariantR:
			names = []string{"Adjustor", "Screw", "Radar", "Software", "Bracket", "Dataset", "Label"}
		case VariantN, VariantSC:
			names = []string{"Radar", "Literature", "Adjusting", "Software", "Dataset", "Label"}
		}
	case KindCamera:
		switch cls.Variant {
		case VariantX, VariantR, VariantN, VariantSC:
			names = []string{"Dataset", "Label", "Camera", "Software"}
		}
	}

	reqs := make([]ElementRequirement, 0, len(names))
	for _, n := range names {
		reqs = append(reqs, ElementRequirement{Name: n, Quantity: expectedQuantity(cls, n)})
	}
	return reqs
}

// expectedQuantity returns the per-row count requirement for an element. The
// legacy families carry their own fastener counts.
func expectedQuantity(cls Classification, element string) int {
	if cls.Family.IsLegacy() {
		switch element {
		case "Adjustor":
			return 3
		case "Screw":
			return 6
		default:
			return 1
		}
	}
	switch element {
	case "Nut", "Screw":
		return 3
	default:
		return 1
	}
}

// requiredDocuments builds the document requirement list. The second return
// signals the explicit no-documents-required verdict given to aftermarket
// bracket parts.
func requiredDocuments(cls Classification) (reqs []DocumentRequirement, none bool) {
	mandatory := func(kinds ...string) {
		for _, k := range kinds {
			reqs = append(reqs, DocumentRequirement{Kind: k})
		}
	}
	optional := func(kinds ...string) {
		for _, k := range kinds {
			reqs = append(reqs, DocumentRequirement{Kind: k, Optional: true})
		}
	}

	// Every legacy variant shares one document rule set.
	if cls.Family.IsLegacy() {
		mandatory("Assembly Drawing", "Installation Drawing", "Service Data")
		return reqs, false
	}

	// The current sensor generation ships no exchange variant; there is no
	// rule set to validate such a key against.
	if cls.Variant == VariantN && (cls.Kind == KindRadar || cls.Kind == KindCamera) {
		return nil, false
	}

	switch {
	case cls.Kind == KindRadar:
		if cls.Variant == VariantR {
			mandatory("Assembly Drawing", "Installation Drawing", "Component Drawing", "Service Data")
		} else {
			mandatory("Assembly Drawing", "Component Drawing", "Service Data")
		}
	case cls.Family == FamilyFLR25Bracket:
		if cls.Options.Aftermarket {
			return nil, true
		}
		mandatory("Material Specification", "Supplier PPAP", "Order Drawing", "DVP")
		optional("Feasibility Agreement (FeA) (DMI)", "Mechanical TR Document", "Electrical TR Document", "Test Report")
	case cls.Family == FamilyFLC25Bracket:
		mandatory("Technical Customer Document", "Assembly Drawing", "Installation Drawing")
		optional("Electrical TR Document", "Process Data Sheet")
	case cls.Family == FamilyFLC25Cover:
		if cls.Options.Aftermarket {
			mandatory("Component Drawing")
		} else {
			mandatory("Installation Drawing", "Component Drawing")
		}
	default:
		// Camera families.
		if cls.Variant == VariantR {
			mandatory("Assembly Drawing", "Installation Drawing", "Service Data")
		} else {
			mandatory("Assembly Drawing", "Service Data")
		}
	}
	return reqs, false
}

// serviceDataLanguages returns the language coverage targets for Service Data
// documents. The legacy families ship three markets; the current generation
// ships the US market only.
func serviceDataLanguages(f Family) []string {
	if f.IsLegacy() {
		return []string{"ES", "US", "FR"}
	}
	return []string{"US"}
}

// Attribute names shared across parameter tables.
const (
	attrArticleType   = "Article Type Value"
	attrSaleableItem  = "Saleable Item Type Value"
	attrTitleID       = "Title ID Value"
	attrUseStatus     = "Use Status"
	attrTypeNumber    = "Type Number"
	attrProductGroup  = "Product Group"
	attrProductGrpDsp = "Product Group Disp"
	attrDeviceCode    = "Device Code"
	attrPriceBook     = "Price Book"
	attrBasicPart     = "Basic Part Number"
	attrSalesChannel  = "Sales Channel Limitation"
	attrSaleableTo    = "Saleable only to Customer(s)"
	attrNumSC         = "Number of S/C"
	attrNumCC         = "Number of C/C"
)

func equal(name, value string) ParameterRequirement {
	return ParameterRequirement{Name: name, Expected: []string{value}}
}

func anyOf(name string, values ...string) ParameterRequirement {
	return ParameterRequirement{Name: name, Expected: values}
}

func nonBlank(name string) ParameterRequirement {
	return ParameterRequirement{Name: name, NonBlank: true}
}

// requiredParameters builds the configuration attribute table for a
// classification. Bracket and cover parts carry no attribute requirements.
func requiredParameters(cls Classification) []ParameterRequirement {
	if cls.Kind == KindBracket || cls.Kind == KindCover {
		return nil
	}

	saleable, ok := saleableItemType(cls.Variant)
	if !ok {
		return nil
	}
	product, ok := productParameters(cls)
	if !ok {
		return nil
	}

	titleID := "Front Radar Assembly; 3753"
	if cls.Kind == KindCamera {
		titleID = "Camera; 2687"
	}

	params := []ParameterRequirement{
		equal(attrArticleType, "AF; Finished Part"),
		equal(attrSaleableItem, saleable),
		equal(attrTitleID, titleID),
		equal(attrUseStatus, "Series"),
		equal(attrTypeNumber, cls.Family.BaseFamily().String()),
	}
	params = append(params, product...)
	params = append(params, nonBlank(attrNumSC), nonBlank(attrNumCC))
	params = append(params, classificationParameters(cls.Kind)...)
	return params
}

func saleableItemType(v Variant) (string, bool) {
	switch v {
	case VariantR, VariantSC:
		return "IP; Product", true
	case VariantX:
		return "N; Not for external sale", true
	case VariantN:
		return "IE; Exchange Product", true
	default:
		return "", false
	}
}

// productParameters returns the family-specific product attributes plus the
// per-variant sales channel rules.
func productParameters(cls Classification) ([]ParameterRequirement, bool) {
	var params []ParameterRequirement
	switch cls.Family {
	case FamilyFLC20:
		params = []ParameterRequirement{
			equal(attrProductGroup, "29LL"),
			equal(attrProductGrpDsp, "Forward Looking Camera"),
			anyOf(attrDeviceCode, "21024", "50017"),
			equal(attrPriceBook, "BXA (air products)"),
			equal(attrBasicPart, cls.BasicPartNumber),
		}
	case FamilyFLR21:
		params = []ParameterRequirement{
			equal(attrProductGroup, "29LA"),
			equal(attrProductGrpDsp, "Forward Looking Radar"),
			anyOf(attrDeviceCode, "4963", "50013", "50016"),
			equal(attrPriceBook, "BXA (air products)"),
			equal(attrBasicPart, cls.BasicPartNumber),
		}
	case FamilyFLC25:
		if cls.Variant == VariantN {
			return nil, false
		}
		params = []ParameterRequirement{
			equal(attrProductGroup, "29LL"),
			equal(attrProductGrpDsp, "Forward Looking Camera"),
			equal(attrDeviceCode, "50024"),
			equal(attrPriceBook, "BXA (air products)"),
			equal(attrBasicPart, cls.BasicPartNumber),
		}
	case FamilyFLR25:
		if cls.Variant == VariantN {
			return nil, false
		}
		params = []ParameterRequirement{
			equal(attrProductGroup, "29LA"),
			equal(attrProductGrpDsp, "Forward Looking Radar"),
			anyOf(attrDeviceCode, "50007", "50022"),
			equal(attrPriceBook, "BXA (air products)"),
			equal(attrBasicPart, cls.BasicPartNumber),
		}
	default:
		return nil, false
	}

	params = append(params, salesChannelParameters(cls.Variant, cls.Family.IsLegacy())...)
	return params, true
}

func salesChannelParameters(v Variant, legacy bool) []ParameterRequirement {
	switch v {
	case VariantR:
		return []ParameterRequirement{
			equal(attrSalesChannel, "OEM only"),
			nonBlank(attrSaleableTo),
		}
	case VariantX:
		return []ParameterRequirement{
			equal(attrSalesChannel, "Inter company only"),
		}
	case VariantN:
		return []ParameterRequirement{
			equal(attrSalesChannel, "AM only"),
			equal(attrSaleableTo, ""),
		}
	case VariantSC:
		// Legacy supercession parts are saleable to every customer; the
		// current generation only requires the customer list to be set.
		saleable := nonBlank(attrSaleableTo)
		if legacy {
			saleable = equal(attrSaleableTo, "All Customers")
		}
		return []ParameterRequirement{
			equal(attrSalesChannel, "AM only"),
			saleable,
		}
	default:
		return nil
	}
}

func classificationParameters(kind ElementKind) []ParameterRequirement {
	var names []string
	if kind == KindCamera {
		names = []string{
			"Application", "ECU Type", "CAN Baud Rate", "Camera Angle",
			"Vehicle Connector", "Video Connector", "Camera Cable Length",
			"Software Version",
		}
	} else {
		names = []string{
			"Application", "Product Type", "CAN Baud Rate", "Connector",
			"Connector 2", "Software Version", "Maximum Operating Temperature",
			"Minimum Operating Temperature",
		}
	}
	params := make([]ParameterRequirement, 0, len(names))
	for _, n := range names {
		params = append(params, nonBlank(n))
	}
	return params
}

// ExpectedDisplay renders the expected-value column for a requirement the way
// run reports show it: equality rules show the literal (alternatives joined
// with " or "), presence rules show a typed placeholder.
func (p ParameterRequirement) ExpectedDisplay() string {
	if !p.NonBlank {
		return strings.Join(p.Expected, " or ")
	}
	switch p.Name {
	case attrNumSC, attrNumCC:
		return "(Digit, Not Blank)"
	case "Application":
		return "(Type of Application, Not Blank)"
	default:
		return "(Not Blank)"
	}
}
