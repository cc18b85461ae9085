package domain

import (
	"fmt"
	"strings"
)

// fanGroups maps each club to the name of its supporters group.
var fanGroups = map[string]string{
	"HAJDUK": "TORCIDA",
	"DINAMO": "BBB",
	"RIJEKA": "ARMADA",
	"OSIJEK": "KOHORTA",
}

// FanGroup returns the supporters group of the given club, or an empty
// string if the club is unknown.
func FanGroup(club string) string {
	return fanGroups[strings.ToUpper(club)]
}

// AssetRecord is the metadata document of a token, as uploaded to the
// content store.
type AssetRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Fans        string `json:"fans"`
	Category    string `json:"category,omitempty"`
}

func NewAssetRecord(name, imageAddress string, table *CategoryTable) AssetRecord {
	fans := FanGroup(name)
	record := AssetRecord{
		Name:        name,
		Description: fmt.Sprintf(" %s with %s fans!", name, fans),
		Image:       imageAddress,
		Fans:        fans,
	}
	if table != nil {
		if category, ok := table.ByName(name); ok {
			record.Category = category.Name
		}
	}
	return record
}
