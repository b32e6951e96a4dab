package importers

import (
	"encoding/json"
	"fmt"

	"github.com/mrlokans/guidekeeper/internal/schema"
	"github.com/mrlokans/guidekeeper/internal/services"
)

// document is the result of a successful decode: the detected shape and
// the guides it carries.
type document struct {
	format services.ImportFormat
	guides []schema.GuideExportData
}

// decoder handles one document shape. It applies only when key is present at
// the top level; a decode error moves on to the next decoder.
type decoder struct {
	format services.ImportFormat
	key    string
	decode func(data []byte) ([]schema.GuideExportData, error)
}

var decoders = []decoder{
	{
		format: services.FormatSingleGuide,
		key:    "guide",
		decode: func(data []byte) ([]schema.GuideExportData, error) {
			var env schema.GuideExport
			if err := json.Unmarshal(data, &env); err != nil {
				return nil, err
			}
			return []schema.GuideExportData{env.Guide}, nil
		},
	},
	{
		format: services.FormatMultiGuide,
		key:    "guides",
		decode: func(data []byte) ([]schema.GuideExportData, error) {
			var env schema.GuidesExport
			if err := json.Unmarshal(data, &env); err != nil {
				return nil, err
			}
			return env.Guides, nil
		},
	},
	{
		format: services.FormatBareGuide,
		key:    "title",
		decode: func(data []byte) ([]schema.GuideExportData, error) {
			var guide schema.GuideExportData
			if err := json.Unmarshal(data, &guide); err != nil {
				return nil, err
			}
			return []schema.GuideExportData{guide}, nil
		},
	},
}

// decodeDocument runs the decoders in order and returns the first match.
func decodeDocument(data []byte) (document, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return document{}, fmt.Errorf("%w: not a JSON object: %v", services.ErrValidation, err)
	}

	var lastErr error
	for _, d := range decoders {
		if _, ok := keys[d.key]; !ok {
			continue
		}
		guides, err := d.decode(data)
		if err != nil {
			lastErr = err
			continue
		}
		return document{format: d.format, guides: guides}, nil
	}

	if lastErr != nil {
		return document{}, fmt.Errorf("%w: unrecognised guide document: %v", services.ErrValidation, lastErr)
	}
	return document{}, fmt.Errorf("%w: unrecognised guide document: expected one of \"guide\", \"guides\" or \"title\"", services.ErrValidation)
}
