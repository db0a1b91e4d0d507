package storage

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSource(t *testing.T) {
	ctx := context.Background()
	s := &LocalSource{
		dir: "data",
		fsys: fstest.MapFS{
			"CareerData .pdf":             {Data: []byte("%PDF-1.4")},
			"csv/careers.CSV":             {Data: []byte("a,b\n1,2\n")},
			"csv/ProfessionalCareers.csv": {Data: []byte("x\n")},
			"notes.txt":                   {Data: []byte("skip")},
		},
	}

	b, err := s.Read(ctx, "CareerData .pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(b))

	_, err = s.Read(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	pdfs, err := s.List(ctx, ".pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"CareerData .pdf"}, pdfs)

	csvs, err := s.List(ctx, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"csv/ProfessionalCareers.csv", "csv/careers.CSV"}, csvs)

	assert.Equal(t, "file://data", s.Location())
}

func TestGCSSource_ObjectName(t *testing.T) {
	assert.Equal(t, "a.pdf", (&GCSSource{}).objectName("a.pdf"))
	assert.Equal(t, "career/a.pdf", (&GCSSource{prefix: "career/"}).objectName("a.pdf"))
	assert.Equal(t, "career/a.pdf", (&GCSSource{prefix: "career"}).objectName("/a.pdf"))
}
