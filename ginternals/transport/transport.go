// Package transport implements the client side of the git smart HTTP
// protocol: ref discovery and packfile negotiation
// https://git-scm.com/docs/http-protocol
package transport

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/pktline"
	"github.com/grit-scm/grit/internal/errutil"
	"github.com/grit-scm/grit/internal/readutil"
	"golang.org/x/xerrors"
)

const (
	uploadPackService = "git-upload-pack"

	advertisementContentType = "application/x-git-upload-pack-advertisement"
	uploadPackContentType    = "application/x-git-upload-pack-request"

	// capTipSHA1 and capReachableSHA1 are the server capabilities
	// that allow requesting objects by SHA instead of by ref name.
	// We need at least one of them to be able to "want" the SHAs we
	// got from the advertisement
	capTipSHA1       = "allow-tip-sha1-in-want"
	capReachableSHA1 = "allow-reachable-sha1-in-want"

	// nakLen is the size of the "0008NAK\n" pkt-line the server sends
	// before the packfile when no common ancestor was negotiated
	nakLen = 8
)

var (
	// ErrUnexpectedStatus is an error thrown when the server replies
	// with a non-200 status code
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnexpectedContentType is an error thrown when the server
	// replies with the wrong Content-Type, which usually means the
	// URL doesn't point at a smart HTTP endpoint
	ErrUnexpectedContentType = errors.New("unexpected Content-Type")

	// ErrAdvertisementMalformed is an error thrown when the ref
	// advertisement cannot be parsed
	ErrAdvertisementMalformed = errors.New("malformed ref advertisement")

	// ErrCapabilityUnsupported is an error thrown when the server
	// doesn't advertise any capability we can use to fetch by SHA
	ErrCapabilityUnsupported = errors.New("server doesn't support fetching objects by SHA")
)

// Ref represents a reference advertised by a remote
type Ref struct {
	Name string
	ID   ginternals.Oid
}

// Advertisement represents the parsed response of a ref discovery
type Advertisement struct {
	// Refs contains the advertised refs, in the order the server
	// sent them. The first entry is the server's HEAD tip
	Refs []Ref
	// Capabilities contains the capability list the server attached
	// to the first ref line
	Capabilities []string
}

// Supports returns whether a capability was advertised by the server
func (ad *Advertisement) Supports(capability string) bool {
	for _, c := range ad.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// SupportsSHA1Want returns whether the server accepts want lines
// containing a SHA it advertised
func (ad *Advertisement) SupportsSHA1Want() bool {
	return ad.Supports(capTipSHA1) || ad.Supports(capReachableSHA1)
}

// Client talks to a single remote repository over smart HTTP
type Client struct {
	http    *http.Client
	repoURL string
}

// NewClient returns a Client for the given repository URL.
// A trailing slash is dropped so the URL can be suffixed with the
// service endpoints
func NewClient(repoURL string) *Client {
	return &Client{
		http:    &http.Client{},
		repoURL: strings.TrimSuffix(repoURL, "/"),
	}
}

// FetchRefs performs the ref discovery against the remote and returns
// the advertised refs and capabilities
func (c *Client) FetchRefs() (ad *Advertisement, err error) {
	resp, err := c.http.Get(c.repoURL + "/info/refs?service=" + uploadPackService)
	if err != nil {
		return nil, xerrors.Errorf("could not fetch the ref advertisement: %w", err)
	}
	defer errutil.Close(resp.Body, &err)

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("got status %d: %w", resp.StatusCode, ErrUnexpectedStatus)
	}
	if ct := resp.Header.Get("Content-Type"); ct != advertisementContentType {
		return nil, xerrors.Errorf("got %q: %w", ct, ErrUnexpectedContentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("could not read the ref advertisement: %w", err)
	}
	return parseAdvertisement(bytes.NewReader(body))
}

// parseAdvertisement parses the pkt-line framed body of a ref
// discovery response:
//
// 001e# service=git-upload-pack\n
// 0000
// 004895dcfa3633004da0049d3d0fa03f80589cbcaf31 refs/heads/maint\0cap1 cap2\n
// 003fd049f6c27a2244e12041955e262a404c7faba355 refs/heads/master\n
// 0000
//
// The first ref line carries a NUL followed by the capability list
func parseAdvertisement(r *bytes.Reader) (*Advertisement, error) {
	// The announcement line and its bracketing flush come first
	line, err := pktline.ReadLine(r)
	if err != nil {
		return nil, err
	}
	if line.IsFlush || !bytes.HasPrefix(line.Payload, []byte("# service="+uploadPackService)) {
		return nil, xerrors.Errorf("unexpected service announcement %q: %w", line.Payload, ErrAdvertisementMalformed)
	}
	if line, err = pktline.ReadLine(r); err != nil {
		return nil, err
	}
	if !line.IsFlush {
		return nil, xerrors.Errorf("expected flush-pkt after the service announcement: %w", ErrAdvertisementMalformed)
	}

	ad := &Advertisement{}
	for {
		line, err = pktline.ReadLine(r)
		if err != nil {
			return nil, err
		}
		// the advertisement is terminated by a flush-pkt
		if line.IsFlush {
			break
		}

		payload := bytes.TrimSuffix(line.Payload, []byte{'\n'})

		// The first ref entry carries the capability list after a NUL
		if len(ad.Refs) == 0 {
			if caps := readutil.ReadTo(payload, 0); caps != nil {
				capList := payload[len(caps)+1:]
				ad.Capabilities = strings.Fields(string(capList))
				payload = caps
			}
		}

		ref, err := parseRefLine(payload)
		if err != nil {
			return nil, err
		}
		ad.Refs = append(ad.Refs, ref)
	}

	if len(ad.Refs) == 0 {
		return nil, xerrors.Errorf("no refs advertised: %w", ErrAdvertisementMalformed)
	}
	return ad, nil
}

// parseRefLine parses a single "<40-hex-sha> <refname>" entry
func parseRefLine(payload []byte) (Ref, error) {
	sha := readutil.ReadTo(payload, ' ')
	if sha == nil {
		return Ref{}, xerrors.Errorf("no space in ref line %q: %w", payload, ErrAdvertisementMalformed)
	}
	oid, err := ginternals.NewOidFromChars(sha)
	if err != nil {
		return Ref{}, xerrors.Errorf("invalid SHA in ref line %q: %w", payload, ErrAdvertisementMalformed)
	}
	name := string(payload[len(sha)+1:])
	if name == "" {
		return Ref{}, xerrors.Errorf("empty name in ref line %q: %w", payload, ErrAdvertisementMalformed)
	}
	return Ref{Name: name, ID: oid}, nil
}

// FetchPack asks the remote for a packfile containing the given
// wants and everything reachable from them, and returns the raw pack
// bytes.
//
// The request is a pkt-line stream of want lines terminated by a
// flush-pkt and a "done" line. The first want line carries our
// capability list (kept minimal: multi_ack). Since we send done right
// away the server replies with a single NAK pkt-line followed by the
// packfile
func (c *Client) FetchPack(wants []ginternals.Oid) (pack []byte, err error) {
	if len(wants) == 0 {
		return nil, errors.New("no wants provided")
	}

	body := new(bytes.Buffer)
	for i, oid := range wants {
		line := "want " + oid.String() + "\n"
		if i == 0 {
			line = "want " + oid.String() + " multi_ack\n"
		}
		if err := pktline.WriteString(body, line); err != nil {
			return nil, err
		}
	}
	if err := pktline.WriteFlush(body); err != nil {
		return nil, err
	}
	if err := pktline.WriteString(body, "done\n"); err != nil {
		return nil, err
	}

	resp, err := c.http.Post(c.repoURL+"/"+uploadPackService, uploadPackContentType, body)
	if err != nil {
		return nil, xerrors.Errorf("could not request the packfile: %w", err)
	}
	defer errutil.Close(resp.Body, &err)

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("got status %d: %w", resp.StatusCode, ErrUnexpectedStatus)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("could not read the packfile response: %w", err)
	}

	// The pack is preceded by a short pkt-line preamble ("0008NAK\n")
	// that we need to strip
	if len(raw) < nakLen {
		return nil, xerrors.Errorf("response too short to contain a NAK: %w", pktline.ErrPktLineMalformed)
	}
	return raw[nakLen:], nil
}
