// Package batch splits identifier lists into bounded chunks and enriches
// partial records with one concurrent remote lookup per chunk.
//
// Playlists on some platforms arrive as a run of complete records followed
// by a run of stubs that only carry an identifier. Enricher keeps the
// complete head untouched and replaces the stub tail with the records
// returned by the lookup. The stub tail is assumed to be contiguous: records
// after the first stub are not inspected individually.
package batch
