package repositories

import (
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// jsonColumn encodes a list for map-based Updates, which bypass the model's
// serializer:json tag.
func jsonColumn(values []string) clause.Expr {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return gorm.Expr("?::jsonb", string(raw))
}
