// Package importers reads guide documents produced by the exporters package
// (or written by hand) back into the store.
//
// # Flow
//
//	JSON / ZIP bytes → decoder → []schema.GuideExportData → validate → duplicate policy
//	    → category → images uploaded and remapped → guides.Create
//
// # Format Detection
//
// A JSON document carries no discriminator besides its shape, so the
// decoders are tried in a fixed order and the first one that both parses
// and finds its top-level key wins:
//
//  1. single-guide envelope: {"guide": {...}}
//  2. multi-guide envelope:  {"guides": [...]}
//  3. bare guide data:       {"title": ..., "steps": [...]}
//
// A ZIP bundle holds guide.json plus images/ entries. Every image entry is
// uploaded before any guide is written and steps reference the new blob
// ids through schema.StepExportData.ResolvedImageIDs.
//
// # Consistency
//
// Images and guides live in separate stores with no shared transaction.
// Blobs are always written first; a crash between the two steps can leave
// orphaned blobs but never a step pointing at a bundle file name.
//
// # Example Usage
//
//	importer := importers.NewGuideImporter(guideRepo, categoryRepo, imageStore,
//		importers.WithOverwriteImageCleanup(true))
//
//	result := importer.ImportFromFile("backup/network-setup.zip", entities.DuplicateRename)
//	report := importer.ValidateImportFile("incoming.json")
package importers
