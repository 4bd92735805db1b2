package tiss

import (
	"github.com/rs/zerolog"

	"tissrecon/internal/model"
)

// ParseBatch parses every input document and concatenates their items.
// A document whose root cannot be parsed contributes a single error record
// (source file + error text) instead of aborting the batch; sibling
// documents are unaffected.
func ParseBatch(log zerolog.Logger, inputs []Input) []model.GuideItem {
	var out []model.GuideItem
	for _, in := range inputs {
		items, err := ParseDocument(in.Name, in.Data)
		if err != nil {
			log.Warn().Err(err).Str("file", in.Name).Msg("claim document rejected")
			out = append(out, model.GuideItem{SourceFile: in.Name, ParseError: err.Error()})
			continue
		}
		out = append(out, items...)
	}
	return out
}
