package vector

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/docpipe/internal/domain/index"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
)

// Hash field names for stored chunks.
const (
	fieldTenantID   = "tenant_id"
	fieldDocumentID = "document_id"
	fieldChunkID    = "chunk_id"
	fieldSeq        = "seq"
	fieldText       = "text"
	fieldStart      = "start_offset"
	fieldEnd        = "end_offset"
	fieldTokens     = "token_estimate"
	fieldKeywords   = "keywords"
	fieldCategory   = "category"
	fieldIndexedAt  = "indexed_at"
	fieldVector     = "vector"
)

// fieldScore is the virtual field RediSearch attaches to each KNN hit. It
// must be named in the RETURN clause, otherwise the cosine distance is
// dropped from the reply and every candidate scores zero.
const fieldScore = "__vector_score"

const keywordSeparator = ","

// buildHashFields converts an embedding record into a flat map[string]string for HSET.
func buildHashFields(rec *index.Record) map[string]string {
	c := rec.Chunk()
	m := map[string]string{
		fieldTenantID:   rec.TenantID(),
		fieldDocumentID: rec.DocumentID(),
		fieldChunkID:    c.ID(),
		fieldSeq:        strconv.Itoa(c.SequenceIndex()),
		fieldText:       c.Text(),
		fieldStart:      strconv.Itoa(c.StartOffset()),
		fieldEnd:        strconv.Itoa(c.EndOffset()),
		fieldTokens:     strconv.Itoa(c.TokenEstimate()),
		fieldIndexedAt:  strconv.FormatInt(rec.IndexedAt().Unix(), 10),
		fieldVector:     vectorToBytes(rec.Vector()),
	}
	if kw := c.Keywords(); len(kw) > 0 {
		m[fieldKeywords] = strings.Join(kw, keywordSeparator)
	}
	if cats := rec.Categories(); len(cats) > 0 {
		m[fieldCategory] = strings.Join(cats, keywordSeparator)
	}
	return m
}

// parseCandidate converts a search hit's fields into a scoring candidate.
func parseCandidate(fields map[string]string, score float64) result.Candidate {
	seq, _ := strconv.Atoi(fields[fieldSeq])
	base := result.New(
		fields[fieldDocumentID],
		fields[fieldChunkID],
		seq,
		fields[fieldText],
		score,
	)
	var keywords []string
	if raw := fields[fieldKeywords]; raw != "" {
		keywords = strings.Split(raw, keywordSeparator)
	}
	return result.NewCandidate(base, keywords)
}

func unixOrZero(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
