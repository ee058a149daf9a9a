package display

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ujichase/orbit/internal/types"
	"github.com/ujichase/orbit/internal/units"
)

// UnitJson is the `get --json` shape.
type UnitJson struct {
	Identifier    string         `json:"identifier"`
	Generics      []units.Signal `json:"generics"`
	Ports         []units.Signal `json:"ports"`
	Architectures []string       `json:"architectures"`
	Language      string         `json:"language"`
}

// UnitToJson serializes a unit's interface description.
func UnitToJson(u *units.Unit) (string, error) {
	payload := UnitJson{
		Identifier:    u.Identifier.String(),
		Generics:      emptyIfNil(u.Generics),
		Ports:         emptyIfNil(u.Ports),
		Architectures: u.Architectures,
		Language:      u.Lang.JSONName(),
	}
	if payload.Architectures == nil {
		payload.Architectures = []string{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func emptyIfNil(signals []units.Signal) []units.Signal {
	if signals == nil {
		return []units.Signal{}
	}
	return signals
}

// Instance renders a ready-to-paste instantiation of the unit with
// default port mapping, in the unit's own language.
func Instance(u *units.Unit, label string) string {
	if label == "" {
		label = "uX"
	}
	if u.Lang == types.LangVhdl {
		return vhdlInstance(u, label)
	}
	return verilogInstance(u, label)
}

func vhdlInstance(u *units.Unit, label string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s : entity work.%s", label, u.Identifier)
	if len(u.Generics) > 0 {
		sb.WriteString("\n  generic map (\n")
		writeVhdlAssociations(&sb, u.Generics)
		sb.WriteString("\n  )")
	}
	if len(u.Ports) > 0 {
		sb.WriteString("\n  port map (\n")
		writeVhdlAssociations(&sb, u.Ports)
		sb.WriteString("\n  )")
	}
	sb.WriteString(";\n")
	return sb.String()
}

func writeVhdlAssociations(sb *strings.Builder, signals []units.Signal) {
	lines := make([]string, len(signals))
	for i, sig := range signals {
		lines[i] = fmt.Sprintf("    %s => %s", sig.Identifier, sig.Identifier)
	}
	sb.WriteString(strings.Join(lines, ",\n"))
}

func verilogInstance(u *units.Unit, label string) string {
	var sb strings.Builder
	sb.WriteString(u.Identifier.String())
	if len(u.Generics) > 0 {
		sb.WriteString(" #(\n")
		lines := make([]string, len(u.Generics))
		for i, sig := range u.Generics {
			lines[i] = fmt.Sprintf("  .%s(%s)", sig.Identifier, sig.Identifier)
		}
		sb.WriteString(strings.Join(lines, ",\n"))
		sb.WriteString("\n)")
	}
	sb.WriteString(" " + label + " (")
	if len(u.Ports) > 0 {
		sb.WriteString("\n")
		lines := make([]string, len(u.Ports))
		for i, sig := range u.Ports {
			lines[i] = fmt.Sprintf("  .%s(%s)", sig.Identifier, sig.Identifier)
		}
		sb.WriteString(strings.Join(lines, ",\n"))
		sb.WriteString("\n")
	}
	sb.WriteString(");\n")
	return sb.String()
}
