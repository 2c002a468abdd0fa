package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SkillList decodes leniently: arrays keep their string items, a comma-separated
// string is split, and anything else (null, numbers, objects) becomes empty.
type SkillList []string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = SkillList{}
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			*s = SkillList{}
			return nil
		}
		out := make(SkillList, 0, len(raw))
		for _, item := range raw {
			var v string
			if err := json.Unmarshal(item, &v); err != nil {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*s = out
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			*s = SkillList{}
			return nil
		}
		*s = SplitSkills(v)
	default:
		*s = SkillList{}
	}

	return nil
}

// SplitSkills splits a comma-separated skill string, dropping blanks.
func SplitSkills(v string) SkillList {
	out := SkillList{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
