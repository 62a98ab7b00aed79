package worksheet

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Encode.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes the sheet to w in the named format.
func (s *Sheet) Encode(w io.Writer, format string) error {
	switch format {
	case "", FormatText:
		return s.WriteText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(s), "worksheet: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "worksheet: encode yaml")
		}
		return eris.Wrap(enc.Close(), "worksheet: encode yaml")
	default:
		return eris.Errorf("worksheet: unknown format %q", format)
	}
}
