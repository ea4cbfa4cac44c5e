package sdmx

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ONSdigital/log.go/v2/log"
	"github.com/pkg/errors"
)

// timeDimensionID is the reserved temporal dimension. It indexes observations
// rather than identifying a series, so it never forms part of a series key.
const timeDimensionID = "TIME_PERIOD"

// Dataflow identifies one queryable collection of series on the portal
type Dataflow struct {
	ID       string
	AgencyID string
	Version  string
	Name     string
}

// StructureRef points at a data structure definition or code list by
// agency, id and version. Any of the parts other than ID may be empty.
type StructureRef struct {
	AgencyID string
	ID       string
	Version  string
}

// Code is one enumerated value of a dimension
type Code struct {
	ID    string
	Label string
}

// Dimension is one coordinate axis of a series key. Codes is empty when the
// dimension has no enumerable code list, in which case callers must wildcard
// the position or supply free text.
type Dimension struct {
	ID    string
	Name  string
	Codes []Code
}

// candidatePaths returns portal lookup paths for the referenced resource, most
// specific first. Callers try each in turn, treating 404 as "try the next".
func (r StructureRef) candidatePaths(resource string) []string {
	var paths []string
	if r.AgencyID != "" && r.ID != "" && r.Version != "" {
		paths = append(paths, fmt.Sprintf("%s/%s/%s/%s", resource, r.AgencyID, r.ID, r.Version))
	}
	if r.AgencyID != "" && r.ID != "" {
		paths = append(paths, fmt.Sprintf("%s/%s/%s", resource, r.AgencyID, r.ID))
	}
	if r.ID != "" {
		paths = append(paths, fmt.Sprintf("%s/%s", resource, r.ID))
	}
	return paths
}

// ParseStructureURN splits an SDMX structure URN such as
// "urn:sdmx:org.sdmx.infomodel.datastructure.DataStructure=ECB:ECB_EXR1(1.0)"
// into its agency, id and version parts. The version is optional.
func ParseStructureURN(urn string) (StructureRef, error) {
	parts := strings.SplitN(urn, "=", 2)
	if len(parts) != 2 || parts[1] == "" {
		return StructureRef{}, errors.Errorf("malformed structure URN: %q", urn)
	}
	body := strings.SplitN(parts[1], ":", 2)
	if len(body) != 2 || body[1] == "" {
		return StructureRef{}, errors.Errorf("malformed structure URN body: %q", parts[1])
	}

	ref := StructureRef{AgencyID: body[0]}
	rest := body[1]
	if i := strings.Index(rest, "("); i >= 0 && strings.HasSuffix(rest, ")") {
		ref.ID = rest[:i]
		ref.Version = rest[i+1 : len(rest)-1]
	} else {
		ref.ID = rest
	}
	if ref.ID == "" {
		return StructureRef{}, errors.Errorf("structure URN has no id: %q", urn)
	}
	return ref, nil
}

// ListDataflows returns every dataset published by the portal, with an
// English name where one is provided
func (c *Client) ListDataflows(ctx context.Context) ([]Dataflow, error) {
	b, err := c.get(ctx, "dataflow", nil, acceptStructure)
	if err != nil {
		return nil, err
	}

	var doc structureDocument
	if err := xml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse dataflow structure message")
	}

	var flows []Dataflow
	for _, df := range doc.Dataflows {
		if df.ID == "" {
			continue
		}
		flows = append(flows, Dataflow{
			ID:       df.ID,
			AgencyID: df.AgencyID,
			Version:  df.Version,
			Name:     preferEnglish(df.Names, df.ID),
		})
	}
	return flows, nil
}

// GetDimensions resolves the dimensional schema for a dataflow: the ordered
// dimension list of its data structure definition, excluding the temporal
// dimension, with each dimension's code list resolved where one is enumerated.
//
// An unresolvable code list leaves that dimension's Codes empty; only total
// inability to fetch the structure yields an empty dimension list. Neither is
// an error.
func (c *Client) GetDimensions(ctx context.Context, flowID string) ([]Dimension, error) {
	ref, err := c.getStructureRef(ctx, flowID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.Warn(ctx, "failed to resolve structure reference, falling back to flow id", log.Data{
			"flow_id": flowID,
			"error":   err.Error(),
		})
		ref = StructureRef{ID: flowID}
	}

	doc, err := c.getStructureDocument(ctx, ref)
	if err != nil {
		return nil, err
	}
	if doc == nil || len(doc.DataStructures) == 0 {
		log.Warn(ctx, "no data structure definition found for dataflow", log.Data{"flow_id": flowID})
		return nil, nil
	}

	concepts := doc.conceptLabels()
	inline := doc.inlineCodelists()

	raw := doc.DataStructures[0].Dimensions
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Position < raw[j].Position })

	var dims []Dimension
	for _, d := range raw {
		if d.ID == "" || d.ID == timeDimensionID {
			continue
		}
		dim := Dimension{ID: d.ID, Name: d.ID}
		if d.ConceptRef != nil {
			if label, ok := concepts[d.ConceptRef.ID]; ok {
				dim.Name = label
			}
		}
		if d.EnumerationRef != nil {
			dim.Codes = c.resolveCodes(ctx, flowID, d, inline)
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

// resolveCodes finds a dimension's code list, preferring one included inline
// in the structure message before falling back to a portal lookup. Failure
// means the caller has to wildcard the dimension, so it is never fatal.
func (c *Client) resolveCodes(ctx context.Context, flowID string, d dimensionXML, inline map[string][]Code) []Code {
	if codes, ok := inline[d.EnumerationRef.ID]; ok {
		return codes
	}

	ref := StructureRef{AgencyID: d.EnumerationRef.AgencyID, ID: d.EnumerationRef.ID, Version: d.EnumerationRef.Version}
	codes, err := c.getCodelist(ctx, ref)
	if err != nil {
		log.Warn(ctx, "failed to resolve code list for dimension", log.Data{
			"flow_id":   flowID,
			"dimension": d.ID,
			"codelist":  ref.ID,
			"error":     err.Error(),
		})
		return nil
	}
	return codes
}

// getStructureRef finds the data structure reference attached to a dataflow,
// expressed either as a structured Ref or as an opaque URN
func (c *Client) getStructureRef(ctx context.Context, flowID string) (StructureRef, error) {
	query := url.Values{}
	query.Set("references", "all")

	b, err := c.get(ctx, "dataflow/"+flowID, query, acceptStructure)
	if err != nil {
		return StructureRef{}, err
	}

	var doc structureDocument
	if err := xml.Unmarshal(b, &doc); err != nil {
		return StructureRef{}, errors.Wrap(err, "failed to parse dataflow structure message")
	}
	if len(doc.Dataflows) == 0 {
		return StructureRef{ID: flowID}, nil
	}

	df := doc.Dataflows[0]
	if df.Ref != nil && strings.EqualFold(df.Ref.Class, "datastructure") {
		return StructureRef{AgencyID: df.Ref.AgencyID, ID: df.Ref.ID, Version: df.Ref.Version}, nil
	}
	if df.URN != "" {
		if ref, err := ParseStructureURN(df.URN); err == nil {
			return ref, nil
		}
	}
	return StructureRef{ID: flowID}, nil
}

// getStructureDocument fetches the data structure definition, trying candidate
// paths from most to least specific. A nil document with nil error means every
// candidate returned not-found.
func (c *Client) getStructureDocument(ctx context.Context, ref StructureRef) (*structureDocument, error) {
	query := url.Values{}
	query.Set("references", "children")

	for _, path := range ref.candidatePaths("datastructure") {
		b, err := c.get(ctx, path, query, acceptStructure)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		var doc structureDocument
		if err := xml.Unmarshal(b, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse data structure message")
		}
		return &doc, nil
	}
	return nil, nil
}

// getCodelist fetches one code list by reference with the same candidate path
// strategy as the structure lookup
func (c *Client) getCodelist(ctx context.Context, ref StructureRef) ([]Code, error) {
	for _, path := range ref.candidatePaths("codelist") {
		b, err := c.get(ctx, path, nil, acceptStructure)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		var doc structureDocument
		if err := xml.Unmarshal(b, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse codelist structure message")
		}
		for _, cl := range doc.Codelists {
			return codesFromXML(cl), nil
		}
		return nil, nil
	}
	return nil, errors.Errorf("codelist %s not found on any candidate path", ref.ID)
}

// structureDocument is the subset of an SDMX-ML 2.1 structure message the
// client reads. Field tags match local element names only, so the document's
// namespace prefixes are irrelevant.
type structureDocument struct {
	XMLName        xml.Name           `xml:"Structure"`
	Dataflows      []dataflowXML      `xml:"Structures>Dataflows>Dataflow"`
	DataStructures []dataStructureXML `xml:"Structures>DataStructures>DataStructure"`
	Codelists      []codelistXML      `xml:"Structures>Codelists>Codelist"`
	ConceptSchemes []conceptSchemeXML `xml:"Structures>Concepts>ConceptScheme"`
}

type dataflowXML struct {
	ID       string          `xml:"id,attr"`
	AgencyID string          `xml:"agencyID,attr"`
	Version  string          `xml:"version,attr"`
	Names    []localisedText `xml:"Name"`
	Ref      *refXML         `xml:"Structure>Ref"`
	URN      string          `xml:"Structure>URN"`
}

type dataStructureXML struct {
	ID         string         `xml:"id,attr"`
	Dimensions []dimensionXML `xml:"DataStructureComponents>DimensionList>Dimension"`
}

type dimensionXML struct {
	ID             string  `xml:"id,attr"`
	Position       int     `xml:"position,attr"`
	ConceptRef     *refXML `xml:"ConceptIdentity>Ref"`
	EnumerationRef *refXML `xml:"LocalRepresentation>Enumeration>Ref"`
}

type codelistXML struct {
	ID       string    `xml:"id,attr"`
	AgencyID string    `xml:"agencyID,attr"`
	Version  string    `xml:"version,attr"`
	Codes    []codeXML `xml:"Code"`
}

type codeXML struct {
	ID    string          `xml:"id,attr"`
	Names []localisedText `xml:"Name"`
}

type conceptSchemeXML struct {
	ID       string       `xml:"id,attr"`
	Concepts []conceptXML `xml:"Concept"`
}

type conceptXML struct {
	ID    string          `xml:"id,attr"`
	Names []localisedText `xml:"Name"`
}

type refXML struct {
	AgencyID string `xml:"agencyID,attr"`
	ID       string `xml:"id,attr"`
	Version  string `xml:"version,attr"`
	Class    string `xml:"class,attr"`
}

type localisedText struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

// conceptLabels flattens every concept scheme in the document into a map of
// concept id to display label
func (d *structureDocument) conceptLabels() map[string]string {
	labels := make(map[string]string)
	for _, scheme := range d.ConceptSchemes {
		for _, concept := range scheme.Concepts {
			if concept.ID == "" {
				continue
			}
			labels[concept.ID] = preferEnglish(concept.Names, concept.ID)
		}
	}
	return labels
}

// inlineCodelists indexes code lists carried inside the structure message by id
func (d *structureDocument) inlineCodelists() map[string][]Code {
	lists := make(map[string][]Code)
	for _, cl := range d.Codelists {
		if cl.ID == "" {
			continue
		}
		lists[cl.ID] = codesFromXML(cl)
	}
	return lists
}

func codesFromXML(cl codelistXML) []Code {
	var codes []Code
	for _, code := range cl.Codes {
		if code.ID == "" {
			continue
		}
		codes = append(codes, Code{
			ID:    code.ID,
			Label: preferEnglish(code.Names, code.ID),
		})
	}
	return codes
}

// preferEnglish picks an English-tagged label when one is present, then any
// non-empty label, then the fallback
func preferEnglish(names []localisedText, fallback string) string {
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n.Lang), "en") && strings.TrimSpace(n.Text) != "" {
			return strings.TrimSpace(n.Text)
		}
	}
	for _, n := range names {
		if strings.TrimSpace(n.Text) != "" {
			return strings.TrimSpace(n.Text)
		}
	}
	return fallback
}
