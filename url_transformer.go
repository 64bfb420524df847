package main

import (
	"fmt"
	"net/url"
	"strings"
)

// SourceClass identifies which URL space a raw location belongs to.
type SourceClass int

const (
	SourceUnknown SourceClass = iota
	SourceCanonical
	SourceMapped
)

// TransformValidationError means a rewritten location violated the
// canonical-domain invariant. It is fatal to that entry and never coerced:
// subdomain leakage into the output is the top SEO hazard this system guards
// against.
type TransformValidationError struct {
	Input  string
	Result string
	Reason string
}

// Error implements the error interface for TransformValidationError.
func (e *TransformValidationError) Error() string {
	return fmt.Sprintf("transform of %q produced invalid %q: %s", e.Input, e.Result, e.Reason)
}

// URLTransformer rewrites source-domain locations into the canonical domain's
// URL space according to the configured mappings.
type URLTransformer struct {
	CanonicalDomain string
	BareDomain      string
	Mappings        []DomainMapping
}

// ClassifySource reports the URL space loc belongs to and, for SourceMapped,
// the mapping that claims it. Mappings are checked in configuration order.
func (t *URLTransformer) ClassifySource(loc string) (SourceClass, *DomainMapping) {
	u, err := url.Parse(loc)
	if err != nil || !u.IsAbs() {
		return SourceUnknown, nil
	}

	host := strings.ToLower(u.Hostname())
	if host == t.CanonicalDomain || host == t.BareDomain {
		return SourceCanonical, nil
	}
	for i := range t.Mappings {
		if host == t.Mappings[i].Subdomain {
			return SourceMapped, &t.Mappings[i]
		}
	}
	return SourceUnknown, nil
}

// Transform rewrites loc according to its source classification, preserving
// query and fragment, and validates that the result lands on the canonical
// domain. SourceUnknown locations pass through untouched for the domain
// validator to drop; callers may supply SourceCanonical for such a location
// to recover a misclassified canonical URL instead.
func (t *URLTransformer) Transform(loc string, class SourceClass, mapping *DomainMapping) (string, error) {
	if class == SourceUnknown {
		return loc, nil
	}

	u, err := url.Parse(loc)
	if err != nil || !u.IsAbs() {
		return "", &TransformValidationError{Input: loc, Reason: "not a parseable absolute URL"}
	}

	switch class {
	case SourceCanonical:
		if !strings.EqualFold(u.Hostname(), t.CanonicalDomain) {
			u.Scheme = "https"
			u.Host = t.CanonicalDomain
		}
	case SourceMapped:
		if mapping == nil {
			return "", &TransformValidationError{Input: loc, Reason: "mapped classification without a mapping"}
		}
		u.Scheme = "https"
		u.Host = t.CanonicalDomain
		u.Path = prefixedPath(u.Path, mapping.PathPrefix)
	}

	return t.validate(loc, u)
}

// validate enforces the post-rewrite domain invariant.
func (t *URLTransformer) validate(input string, u *url.URL) (string, error) {
	host := strings.ToLower(u.Hostname())
	if host != t.CanonicalDomain {
		return "", &TransformValidationError{
			Input:  input,
			Result: u.String(),
			Reason: fmt.Sprintf("hostname %q is not the canonical domain %q", host, t.CanonicalDomain),
		}
	}
	for _, m := range t.Mappings {
		if strings.Contains(host, m.Subdomain) {
			return "", &TransformValidationError{
				Input:  input,
				Result: u.String(),
				Reason: fmt.Sprintf("hostname %q leaks source subdomain %q", host, m.Subdomain),
			}
		}
	}
	return u.String(), nil
}
