package kinetics

import "strings"

// Normalize canonicalizes preset names and material aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalPresetName(normalized); ok {
		return canonical
	}
	trimmed := trimRouteSuffix(normalized)
	if trimmed != normalized {
		if canonical, ok := canonicalPresetName(trimmed); ok {
			return canonical
		}
	}
	return normalized
}

func trimRouteSuffix(value string) string {
	switch {
	case strings.HasSuffix(value, "-furnace"):
		return strings.TrimSuffix(value, "-furnace")
	case strings.HasSuffix(value, "-route"):
		return strings.TrimSuffix(value, "-route")
	case strings.HasSuffix(value, "-synthesis"):
		return strings.TrimSuffix(value, "-synthesis")
	default:
		return value
	}
}

func canonicalPresetName(alias string) (string, bool) {
	switch alias {
	case "chalcogenide":
		return "chalcogenide", true
	case "perovskite":
		return "perovskite", true
	case "solvent":
		return "solvent", true
	case "cell":
		return "cell", true
	}

	compact := strings.ReplaceAll(alias, "-", "")
	switch compact {
	case "cagete3":
		return "chalcogenide", true
	case "bazrs3":
		return "perovskite", true
	case "li3ps4", "betali3ps4", "alloy", "sulfide":
		return "solvent", true
	case "battery", "sei", "seicell", "anode":
		return "cell", true
	default:
		return "", false
	}
}
