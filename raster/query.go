// Package raster models imagery-provider computations as immutable query
// values. A Query is a chain of side-effect-free transformation stages
// (filter, mask, band math, temporal composite) that a Provider materializes
// remotely; nothing in this package performs I/O.
package raster

import (
	"context"

	"terralens/catalog"
	"terralens/models"
)

// Reducer names a temporal or spatial aggregation.
type Reducer string

const (
	ReduceMedian Reducer = "median"
	ReduceMean   Reducer = "mean"
	ReduceSum    Reducer = "sum"
	ReduceMax    Reducer = "max"
)

// OpKind tags one stage of a Query.
type OpKind int

const (
	OpCollection OpKind = iota // image collection source
	OpImage                    // single static image source
	OpFilterBounds
	OpFilterDate
	OpFilterLT           // scene metadata property < Num
	OpFilterEq           // scene metadata property == Str
	OpFilterListContains // scene metadata list property contains Str
	OpMaskQABits         // mask pixels unless all Bits of band Name are zero
	OpLinear             // per-pixel v*Num + Num2
	OpSelect             // keep only Bands
	OpNormalizedDiff     // (Bands[0]-Bands[1])/(Bands[0]+Bands[1]) -> band "nd"
	OpExpression         // algebraic Expr over Vars (var name -> band)
	OpMultiply           // per-pixel v * Num
	OpComposite          // collapse the time series with Reducers
	OpSlope              // terrain gradient of band Name, degrees
)

// Op is one immutable stage. Only the fields relevant to its Kind are set.
type Op struct {
	Kind     OpKind
	Name     string // source id, property or band name
	Str      string
	Num      float64
	Num2     float64
	Bands    []string
	Bits     []uint
	Expr     string
	Vars     map[string]string
	Region   models.Region
	Window   models.DateWindow
	Reducers []Reducer
}

// Query is an immutable chain of stages. Every method returns a new value;
// queries are safe to share across goroutines.
type Query struct {
	ops []Op
}

// Collection starts a query over an image collection.
func Collection(id string) Query {
	return Query{ops: []Op{{Kind: OpCollection, Name: id}}}
}

// Image starts a query over a single static image.
func Image(id string) Query {
	return Query{ops: []Op{{Kind: OpImage, Name: id}}}
}

func (q Query) with(op Op) Query {
	ops := make([]Op, len(q.ops), len(q.ops)+1)
	copy(ops, q.ops)
	return Query{ops: append(ops, op)}
}

// Ops returns a copy of the stage chain for providers to encode or evaluate.
func (q Query) Ops() []Op {
	out := make([]Op, len(q.ops))
	copy(out, q.ops)
	return out
}

// Source returns the collection or image id the query reads from.
func (q Query) Source() string {
	if len(q.ops) == 0 {
		return ""
	}
	return q.ops[0].Name
}

func (q Query) FilterBounds(r models.Region) Query {
	return q.with(Op{Kind: OpFilterBounds, Region: r})
}

func (q Query) FilterDate(w models.DateWindow) Query {
	return q.with(Op{Kind: OpFilterDate, Window: w})
}

func (q Query) FilterLT(property string, v float64) Query {
	return q.with(Op{Kind: OpFilterLT, Name: property, Num: v})
}

func (q Query) FilterEq(property, v string) Query {
	return q.with(Op{Kind: OpFilterEq, Name: property, Str: v})
}

func (q Query) FilterListContains(property, v string) Query {
	return q.with(Op{Kind: OpFilterListContains, Name: property, Str: v})
}

// MaskQABits drops pixels where any of the given bits of the QA band are set.
func (q Query) MaskQABits(band string, bits ...uint) Query {
	return q.with(Op{Kind: OpMaskQABits, Name: band, Bits: bits})
}

// Linear applies v*scale + offset per pixel, e.g. digital-number to Celsius.
func (q Query) Linear(scale, offset float64) Query {
	return q.with(Op{Kind: OpLinear, Num: scale, Num2: offset})
}

func (q Query) Select(bands ...string) Query {
	return q.with(Op{Kind: OpSelect, Bands: bands})
}

// NormalizedDifference yields (a-b)/(a+b) as single band "nd".
func (q Query) NormalizedDifference(a, b string) Query {
	return q.with(Op{Kind: OpNormalizedDiff, Bands: []string{a, b}})
}

// Expression applies an algebraic expression over named bands. vars maps
// expression identifiers to band names.
func (q Query) Expression(expr string, vars map[string]string) Query {
	return q.with(Op{Kind: OpExpression, Expr: expr, Vars: vars})
}

func (q Query) Multiply(f float64) Query {
	return q.with(Op{Kind: OpMultiply, Num: f})
}

// Composite collapses the filtered time series per pixel. With a single
// reducer band names are kept; with several, each band is suffixed with the
// reducer name (B8 -> B8_mean, B8_max), matching provider semantics.
func (q Query) Composite(reducers ...Reducer) Query {
	return q.with(Op{Kind: OpComposite, Reducers: reducers})
}

// Slope derives the terrain gradient in degrees from an elevation band.
func (q Query) Slope(band string) Query {
	return q.with(Op{Kind: OpSlope, Name: band})
}

// Reduction describes a spatial reduction over a region.
type Reduction struct {
	Reducer     Reducer
	ScaleMeters float64
	MaxPixels   int64
}

// MeanAt is the common case: spatial mean at the given nominal resolution
// with the standard pixel-count cap.
func MeanAt(scaleMeters float64) Reduction {
	return Reduction{Reducer: ReduceMean, ScaleMeters: scaleMeters, MaxPixels: 1e9}
}

// Provider is the Earth Observation capability the pipeline depends on.
// Implementations: the Earth Engine adapter and the offline synthetic
// provider.
type Provider interface {
	// Name identifies the backing provider for health reporting.
	Name() string
	// AreaHectares computes the planar area of the region.
	AreaHectares(ctx context.Context, region models.Region) (float64, error)
	// ReduceRegion materializes the query and spatially reduces it over the
	// region, returning one scalar per band. An empty matching scene set
	// yields an error with code no_data_available.
	ReduceRegion(ctx context.Context, q Query, region models.Region, red Reduction) (map[string]float64, error)
	// TileURL clips the materialized raster to the region, applies the
	// visualization and returns a tile URL template.
	TileURL(ctx context.Context, q Query, region models.Region, vis catalog.Visualization) (string, error)
}
