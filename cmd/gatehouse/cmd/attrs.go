package cmd

import "strings"

// parseAttrFlags turns repeated "key:val1,val2,val3" flag values into an
// attribute map, merging values when the same key is repeated.
func parseAttrFlags(raw []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, entry := range raw {
		key, vals, ok := strings.Cut(entry, ":")
		if !ok || key == "" {
			return nil, errAttrFormat(entry)
		}
		out[key] = append(out[key], strings.Split(vals, ",")...)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func errAttrFormat(entry string) error {
	return &attrFormatError{entry: entry}
}

type attrFormatError struct{ entry string }

func (e *attrFormatError) Error() string {
	return "malformed attribute " + e.entry + ", want key:val1,val2,val3"
}
