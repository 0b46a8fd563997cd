package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// ErrSchema is matched by every error FromSerializable returns for a
// malformed snapshot.
var ErrSchema = errors.New("atlas snapshot schema error")

// SchemaError describes the node record and field that failed to import.
// Index is -1 for problems with the top-level structure.
type SchemaError struct {
	Index int
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s: %v", ErrSchema, e.Field, e.Err)
	}
	return fmt.Sprintf("%v: node %d: %s: %v", ErrSchema, e.Index, e.Field, e.Err)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.Err }

var errMissing = errors.New("required field missing")

// ExportSource selects where exported node neighbor lists come from.
type ExportSource string

const (
	// ExportAuthored writes each node's authored neighbors. Edges added only
	// through AddEdge are not written.
	ExportAuthored ExportSource = "authored"
	// ExportAdjacency writes each node's neighbors as seen by queries, so
	// edges added through AddEdge survive a round trip.
	ExportAdjacency ExportSource = "adjacency"
)

// ParseExportSource validates an export source name. Empty selects
// ExportAuthored.
func ParseExportSource(s string) (ExportSource, error) {
	switch ExportSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportAuthored:
		return ExportAuthored, nil
	case ExportAdjacency:
		return ExportAdjacency, nil
	}
	return "", fmt.Errorf("unknown export source %q (want %q or %q)", s, ExportAuthored, ExportAdjacency)
}

// ExportOptions configures ToSerializableWith.
type ExportOptions struct {
	Source ExportSource
}

// ToSerializable exports the graph as a snapshot structure using authored
// neighbor lists.
func (g *Graph) ToSerializable() map[string]any {
	return g.ToSerializableWith(ExportOptions{Source: ExportAuthored})
}

// ToSerializableWith exports the graph as a snapshot structure. The
// "edge_sets" entry lists edge-set names only; adjacency is carried by the
// node records.
func (g *Graph) ToSerializableWith(opts ExportOptions) map[string]any {
	nodes := g.Nodes()
	records := make([]any, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, g.record(n, opts.Source))
	}

	names := g.EdgeSetNames()
	edgeSets := make([]any, 0, len(names))
	for _, name := range names {
		edgeSets = append(edgeSets, name)
	}

	return map[string]any{
		"nodes":     records,
		"edge_sets": edgeSets,
	}
}

// Record returns the snapshot record of a single node.
func (g *Graph) Record(id int64, opts ExportOptions) (map[string]any, bool) {
	n, ok := g.Node(id)
	if !ok {
		return nil, false
	}
	return g.record(n, opts.Source), true
}

func (g *Graph) record(n *Node, source ExportSource) map[string]any {
	neighbors := make(map[string]any)
	if source == ExportAdjacency {
		for _, name := range g.EdgeSetNames() {
			if _, ok := g.edgeSets[name][n.ID]; ok {
				neighbors[name] = int64List(g.Neighbors(n.ID, name))
			}
		}
	} else {
		for name, ids := range n.Neighbors {
			neighbors[name] = int64List(slices.Sorted(slices.Values(ids)))
		}
	}

	uv := make(map[string]any, len(n.AtlasUV))
	for k, v := range n.AtlasUV {
		uv[k] = v
	}

	tags := make([]any, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, t)
	}

	observations := make([]any, 0, len(n.CameraObservations))
	for _, obs := range n.CameraObservations {
		rec := make(map[string]any, len(obs))
		for k, v := range obs {
			rec[k] = v
		}
		observations = append(observations, rec)
	}

	var confidence any
	if n.Confidence != nil {
		confidence = *n.Confidence
	}

	return map[string]any{
		"id":                  n.ID,
		"chunk_id":            n.ChunkID,
		"index_in_chunk":      n.IndexInChunk,
		"region":              nullable(n.Region),
		"atlas_uv":            uv,
		"neighbors":           neighbors,
		"tags":                tags,
		"description":         nullable(n.Description),
		"confidence":          confidence,
		"camera_observations": observations,
	}
}

func int64List(ids []int64) []any {
	list := make([]any, 0, len(ids))
	for _, id := range ids {
		list = append(list, id)
	}
	return list
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// FromSerializable builds a graph from a parsed snapshot. Unknown keys are
// ignored. Any malformed node record aborts the import; no partial graph is
// returned.
func FromSerializable(data map[string]any) (*Graph, error) {
	g := NewGraph()

	raw, ok := data["nodes"]
	if !ok || raw == nil {
		return g, nil
	}
	items, ok := asList(raw)
	if !ok {
		return nil, &SchemaError{Index: -1, Field: "nodes", Err: fmt.Errorf("expected a list, got %T", raw)}
	}

	nodes := make([]*Node, 0, len(items))
	for i, item := range items {
		rec, ok := asObject(item)
		if !ok {
			return nil, &SchemaError{Index: i, Field: "node", Err: fmt.Errorf("expected an object, got %T", item)}
		}
		node, err := decodeNode(i, rec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	for _, node := range nodes {
		g.AddNode(node)
	}
	return g, nil
}

func decodeNode(index int, rec map[string]any) (*Node, error) {
	fail := func(field string, err error) error {
		return &SchemaError{Index: index, Field: field, Err: err}
	}

	id, err := toInt64(rec["id"])
	if err != nil {
		return nil, fail("id", err)
	}
	chunkID, err := toString(rec["chunk_id"])
	if err != nil {
		return nil, fail("chunk_id", err)
	}
	index64, err := toInt64(rec["index_in_chunk"])
	if err != nil {
		return nil, fail("index_in_chunk", err)
	}

	node := NewNode(id, chunkID, int(index64))

	if node.Region, err = optionalString(rec["region"]); err != nil {
		return nil, fail("region", err)
	}
	if node.Description, err = optionalString(rec["description"]); err != nil {
		return nil, fail("description", err)
	}

	if v := rec["confidence"]; v != nil {
		c, err := toFloat64(v)
		if err != nil {
			return nil, fail("confidence", err)
		}
		node.Confidence = &c
	}

	if v := rec["atlas_uv"]; v != nil {
		if node.AtlasUV, err = toFloatMap(v); err != nil {
			return nil, fail("atlas_uv", err)
		}
	}

	if v := rec["neighbors"]; v != nil {
		obj, ok := asObject(v)
		if !ok {
			return nil, fail("neighbors", fmt.Errorf("expected an object, got %T", v))
		}
		for name, rawIDs := range obj {
			list, ok := asList(rawIDs)
			if !ok {
				return nil, fail("neighbors."+name, fmt.Errorf("expected a list, got %T", rawIDs))
			}
			ids := make([]int64, 0, len(list))
			for _, rawID := range list {
				nid, err := toInt64(rawID)
				if err != nil {
					return nil, fail("neighbors."+name, err)
				}
				ids = append(ids, nid)
			}
			node.Neighbors[name] = ids
		}
	}

	if v := rec["tags"]; v != nil {
		list, ok := asList(v)
		if !ok {
			return nil, fail("tags", fmt.Errorf("expected a list, got %T", v))
		}
		for _, t := range list {
			tag, ok := t.(string)
			if !ok {
				return nil, fail("tags", fmt.Errorf("expected a string, got %T", t))
			}
			node.Tags = append(node.Tags, tag)
		}
	}

	if v := rec["camera_observations"]; v != nil {
		list, ok := asList(v)
		if !ok {
			return nil, fail("camera_observations", fmt.Errorf("expected a list, got %T", v))
		}
		for _, item := range list {
			obs, err := toFloatMap(item)
			if err != nil {
				return nil, fail("camera_observations", err)
			}
			node.CameraObservations = append(node.CameraObservations, obs)
		}
	}

	return node, nil
}

// asList accepts any slice type, as produced by encoding/json, yaml.v3 or
// by Go callers building the structure by hand.
func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}

// asObject accepts any map keyed by strings.
func asObject(v any) (map[string]any, bool) {
	if obj, ok := v.(map[string]any); ok {
		return obj, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	obj := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		obj[iter.Key().String()] = iter.Value().Interface()
	}
	return obj, true
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, errMissing
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return truncate(float64(n))
	case float64:
		return truncate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to an integer", n.String())
		}
		return truncate(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to an integer", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", v)
}

// truncate drops the fractional part, as integer conversion of a float does.
func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("cannot convert %v to an integer", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, errMissing
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %T to a number", v)
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", errMissing
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), nil
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", s), nil
	}
	return "", fmt.Errorf("cannot convert %T to a string", v)
}

func optionalString(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", v)
	}
	return s, nil
}

func toFloatMap(v any) (map[string]float64, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	out := make(map[string]float64, len(obj))
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		f, err := toFloat64(obj[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = f
	}
	return out, nil
}
