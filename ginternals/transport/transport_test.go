package transport_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/pktline"
	"github.com/grit-scm/grit/ginternals/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	headSHA   = "1dcdadc2a420225783794fbffd51e2e137a69646"
	branchSHA = "f96f63e52cb8862b2c2d1a8b868229259c57854e"
)

// advertisementBody builds a valid ref discovery response
func advertisementBody(t *testing.T, caps string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, pktline.WriteString(buf, "# service=git-upload-pack\n"))
	require.NoError(t, pktline.WriteFlush(buf))
	require.NoError(t, pktline.WriteString(buf, headSHA+" HEAD\x00"+caps+"\n"))
	require.NoError(t, pktline.WriteString(buf, headSHA+" refs/heads/master\n"))
	require.NoError(t, pktline.WriteString(buf, branchSHA+" refs/heads/dev\n"))
	require.NoError(t, pktline.WriteFlush(buf))
	return buf.Bytes()
}

func TestFetchRefs(t *testing.T) {
	t.Parallel()

	t.Run("should parse the refs and capabilities", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/info/refs", r.URL.Path)
			require.Equal(t, "git-upload-pack", r.URL.Query().Get("service"))
			w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
			_, err := w.Write(advertisementBody(t, "multi_ack allow-tip-sha1-in-want"))
			require.NoError(t, err)
		}))
		t.Cleanup(ts.Close)

		ad, err := transport.NewClient(ts.URL).FetchRefs()
		require.NoError(t, err)

		require.Len(t, ad.Refs, 3)
		assert.Equal(t, "HEAD", ad.Refs[0].Name)
		assert.Equal(t, headSHA, ad.Refs[0].ID.String())
		assert.Equal(t, "refs/heads/master", ad.Refs[1].Name)
		assert.Equal(t, "refs/heads/dev", ad.Refs[2].Name)
		assert.Equal(t, branchSHA, ad.Refs[2].ID.String())

		assert.True(t, ad.Supports("multi_ack"))
		assert.True(t, ad.SupportsSHA1Want())
		assert.False(t, ad.Supports("side-band-64k"))
	})

	t.Run("missing want capabilities should be reported", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
			_, err := w.Write(advertisementBody(t, "multi_ack"))
			require.NoError(t, err)
		}))
		t.Cleanup(ts.Close)

		ad, err := transport.NewClient(ts.URL).FetchRefs()
		require.NoError(t, err)
		assert.False(t, ad.SupportsSHA1Want())
	})

	t.Run("a non-200 status should fail", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(ts.Close)

		_, err := transport.NewClient(ts.URL).FetchRefs()
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrUnexpectedStatus)
	})

	t.Run("a dumb HTTP response should fail on the content type", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprint(w, headSHA+"\tHEAD\n")
		}))
		t.Cleanup(ts.Close)

		_, err := transport.NewClient(ts.URL).FetchRefs()
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrUnexpectedContentType)
	})

	t.Run("a missing service announcement should fail", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
			buf := new(bytes.Buffer)
			require.NoError(t, pktline.WriteString(buf, headSHA+" HEAD\n"))
			require.NoError(t, pktline.WriteFlush(buf))
			_, err := w.Write(buf.Bytes())
			require.NoError(t, err)
		}))
		t.Cleanup(ts.Close)

		_, err := transport.NewClient(ts.URL).FetchRefs()
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrAdvertisementMalformed)
	})
}

func TestFetchPack(t *testing.T) {
	t.Parallel()

	t.Run("should send the wants and strip the NAK", func(t *testing.T) {
		t.Parallel()

		packBytes := []byte("PACK pretend this is a packfile")

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/git-upload-pack", r.URL.Path)
			require.Equal(t, "application/x-git-upload-pack-request", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			// the first want line is longer than the other because
			// of the capability token
			expected := "003cwant " + headSHA + " multi_ack\n" +
				"0032want " + branchSHA + "\n" +
				"0000" + "0009done\n"
			require.Equal(t, expected, string(body))

			_, err = w.Write(append([]byte("0008NAK\n"), packBytes...))
			require.NoError(t, err)
		}))
		t.Cleanup(ts.Close)

		head, err := ginternals.NewOidFromStr(headSHA)
		require.NoError(t, err)
		branch, err := ginternals.NewOidFromStr(branchSHA)
		require.NoError(t, err)

		pack, err := transport.NewClient(ts.URL).FetchPack([]ginternals.Oid{head, branch})
		require.NoError(t, err)
		assert.Equal(t, packBytes, pack)
	})

	t.Run("an empty want list should fail", func(t *testing.T) {
		t.Parallel()

		_, err := transport.NewClient("http://localhost:0").FetchPack(nil)
		require.Error(t, err)
	})

	t.Run("a non-200 status should fail", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(ts.Close)

		oid, err := ginternals.NewOidFromStr(headSHA)
		require.NoError(t, err)
		_, err = transport.NewClient(ts.URL).FetchPack([]ginternals.Oid{oid})
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrUnexpectedStatus)
	})
}
