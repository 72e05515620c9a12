// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package targets

import (
	"net/url"
	"strings"

	"github.com/pdiddy/target-explorer/pkg/types"
)

// AccessionFromURI extracts the reference accession from a tag URI. The
// accession is the second path segment when the path has more than one
// (https://www.uniprot.org/uniprotkb/P43220/entry yields P43220), otherwise
// the only segment.
func AccessionFromURI(uri string) string {
	path := uriPath(uri)
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 1 {
		return parts[1]
	}
	return parts[0]
}

// uriPath returns the path portion of uri. Opaque URIs such as
// "uniprot:P43220" yield their opaque part; URIs url.Parse rejects have the
// scheme and host removed by hand.
func uriPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		rest := uri
		if i := strings.Index(rest, "://"); i >= 0 {
			rest = rest[i+3:]
			if j := strings.IndexByte(rest, '/'); j >= 0 {
				rest = rest[j:]
			} else {
				rest = ""
			}
		}
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	if u.Path == "" && u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}

// tagKey is a tag normalized for aggregation.
type tagKey struct {
	key       string
	name      string
	accession string
	uri       string
}

// KeyFor returns the aggregation key of tag: the lower-cased accession when
// the URI yields one, otherwise the lower-cased display name. ok is false for
// tags that carry neither a name nor a URI, and for tags whose derivation
// comes out empty; such tags take no part in aggregation.
func KeyFor(tag types.Tag) (key string, ok bool) {
	k, ok := normalize(tag)
	return k.key, ok
}

func normalize(tag types.Tag) (tagKey, bool) {
	name := strings.TrimSpace(tag.Name)
	uri := strings.TrimSpace(tag.URI)
	if name == "" && uri == "" {
		return tagKey{}, false
	}
	var acc string
	if uri != "" {
		acc = AccessionFromURI(uri)
	}
	key := strings.ToLower(acc)
	if key == "" {
		key = strings.ToLower(name)
	}
	if key == "" {
		return tagKey{}, false
	}
	return tagKey{key: key, name: name, accession: acc, uri: uri}, true
}
