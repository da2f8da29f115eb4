package schema

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// ToBleveMapping builds a *mapping.IndexMapping for ns from the
// namespace's typed field list rather than from one hard-coded document
// shape.
func ToBleveMapping(ns Namespace) *mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	im.AddDocumentMapping(ns.Name, doc)

	for _, f := range ns.Fields {
		switch f.Type {
		case String, ListOfString:
			fm := bleve.NewTextFieldMapping()
			fm.Store = f.Stored
			fm.Analyzer = "keyword"
			doc.AddFieldMappingsAt(f.Name, fm)
		case Int64, Double, ListOfInt64, ListOfDouble:
			fm := bleve.NewNumericFieldMapping()
			fm.Store = f.Stored
			doc.AddFieldMappingsAt(f.Name, fm)
		case Boolean:
			fm := bleve.NewBooleanFieldMapping()
			fm.Store = f.Stored
			doc.AddFieldMappingsAt(f.Name, fm)
		case GeoPoint, ListOfGeoPoint:
			fm := bleve.NewGeoPointFieldMapping()
			fm.Store = f.Stored
			doc.AddFieldMappingsAt(f.Name, fm)
		case Vector, ListOfVector:
			fm := bleve.NewVectorFieldMapping()
			fm.Dims = f.VectorDim
			fm.Similarity = "dot_product"
			doc.AddFieldMappingsAt(f.Name, fm)
		case ListOfDocument:
			// child attachments are a per-request projection; they are
			// never stored in the index itself.
		}
	}

	im.DefaultMapping = doc
	return im
}
