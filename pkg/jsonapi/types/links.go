package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
)

// Link is either a plain, possibly null, URL string or a link object with an href and
// optional meta information
type Link struct {
	href   *string
	object bool
	meta   Meta
}

func NewLink(href string) Link {
	return Link{href: &href}
}

func NewNullLink() Link {
	return Link{}
}

func NewLinkObject(href string, meta Meta) Link {
	return Link{href: &href, object: true, meta: meta.Clone()}
}

// Href returns the raw link target, or false for a null link
func (l Link) Href() (string, bool) {
	if l.href == nil {
		return "", false
	}
	return *l.href, true
}

func (l Link) IsObject() bool {
	return l.object
}

func (l Link) Meta() Meta {
	return l.meta.Clone()
}

// URL returns the parsed link target, or nil if the link is null or not a valid URL
func (l Link) URL() *url.URL {
	if l.href == nil || *l.href == "" {
		return nil
	}

	u, err := url.Parse(*l.href)
	if err != nil {
		return nil
	}

	return u
}

// Equal compares the resolved URLs of two links, regardless of their shape
func (l Link) Equal(other Link) bool {
	u1, u2 := l.URL(), other.URL()
	if u1 == nil || u2 == nil {
		return u1 == nil && u2 == nil
	}
	return u1.String() == u2.String()
}

func (l *Link) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var href *string
	if json.Unmarshal(data, &href) == nil {
		*l = Link{href: href}
		return nil
	}

	obj := struct {
		Href *string         `json:"href"`
		Meta json.RawMessage `json:"meta"`
	}{}

	if !bytes.HasPrefix(data, []byte("{")) || json.Unmarshal(data, &obj) != nil || obj.Href == nil {
		return errors.NewMalformedLinkError(fmt.Sprintf("a link must be a string or an object with an href, got %.32q", string(data)))
	}

	meta, err := DecodeMeta(obj.Meta)
	if err != nil {
		return errors.NewMalformedLinkError(fmt.Sprintf("invalid link meta: %s", err.Error()))
	}

	*l = Link{href: obj.Href, object: true, meta: meta}
	return nil
}

func (l Link) MarshalJSON() ([]byte, error) {
	if !l.object {
		return json.Marshal(l.href)
	}

	return json.Marshal(struct {
		Href string `json:"href"`
		Meta Meta   `json:"meta,omitempty"`
	}{
		Href: *l.href,
		Meta: l.meta,
	})
}

// Links maps link names such as "self" and "related" to links
type Links map[string]Link

func (ls Links) Get(name string) (Link, bool) {
	l, ok := ls[name]
	return l, ok
}

func (ls Links) Names() []string {
	names := make([]string, 0, len(ls))
	for n := range ls {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (ls Links) Clone() Links {
	if ls == nil {
		return nil
	}
	cp := make(Links, len(ls))
	for k, v := range ls {
		cp[k] = v
	}
	return cp
}

// DecodeLinks decodes an optional links member. Absent and null members yield nil Links.
func DecodeLinks(raw json.RawMessage) (Links, error) {
	if isNullOrEmpty(raw) {
		return nil, nil
	}

	members := map[string]json.RawMessage{}
	err := json.Unmarshal(raw, &members)
	if err != nil {
		return nil, errors.NewMalformedLinkError("links must be an object")
	}

	links := make(Links, len(members))
	for name, member := range members {
		var l Link
		err = l.UnmarshalJSON(member)
		if err != nil {
			return nil, err
		}
		links[name] = l
	}

	return links, nil
}
