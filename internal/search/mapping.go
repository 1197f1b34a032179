package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
)

// foldedKeyword indexes a whole value as one lowercased term, so tag
// "Quantum Mechanics" matches a query for "quantum mechanics".
const foldedKeyword = "folded_keyword"

// buildIndexMapping creates the Bleve index mapping for lecture documents.
//
// Title and description get English stemming; lecturer and course names use
// the simple analyzer so names are not stemmed; tags are matched whole.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	err := indexMapping.AddCustomAnalyzer(foldedKeyword, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Description - searchable but not stored
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	lecturerFieldMapping := bleve.NewTextFieldMapping()
	lecturerFieldMapping.Analyzer = simple.Name
	lecturerFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("lecturer", lecturerFieldMapping)

	courseFieldMapping := bleve.NewTextFieldMapping()
	courseFieldMapping.Analyzer = simple.Name
	courseFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("course", courseFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = foldedKeyword
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	uploadedFieldMapping := bleve.NewNumericFieldMapping()
	uploadedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("uploaded_at", uploadedFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping, nil
}
