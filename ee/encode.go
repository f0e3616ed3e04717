package ee

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"terralens/models"
	"terralens/raster"
)

// expression is the serialized Earth Engine value graph: a flat table of
// nodes plus the key of the result node.
type expression struct {
	Values map[string]any `json:"values"`
	Result string         `json:"result"`
}

// encoder accumulates graph nodes while translating a raster.Query.
type encoder struct {
	values     map[string]any
	next       int
	composited bool // true once the value under construction is a single image
}

func newEncoder() *encoder {
	return &encoder{values: map[string]any{}}
}

func (e *encoder) add(node any) string {
	key := strconv.Itoa(e.next)
	e.next++
	e.values[key] = node
	return key
}

func (e *encoder) invoke(fn string, args map[string]any) string {
	return e.add(map[string]any{
		"functionInvocationValue": map[string]any{
			"functionName": fn,
			"arguments":    args,
		},
	})
}

func constant(v any) map[string]any { return map[string]any{"constantValue": v} }

func ref(key string) map[string]any { return map[string]any{"valueReference": key} }

func argRef(name string) map[string]any { return map[string]any{"argumentReference": name} }

func (e *encoder) geometry(region models.Region) string {
	g := geojson.NewGeometry(region.Polygon())
	return e.invoke("GeometryConstructors.Polygon", map[string]any{
		"coordinates": constant(g.Coordinates),
	})
}

func (e *encoder) reducer(r raster.Reducer) string {
	switch r {
	case raster.ReduceMedian:
		return e.invoke("Reducer.median", nil)
	case raster.ReduceSum:
		return e.invoke("Reducer.sum", nil)
	case raster.ReduceMax:
		return e.invoke("Reducer.max", nil)
	default:
		return e.invoke("Reducer.mean", nil)
	}
}

func (e *encoder) combinedReducer(reducers []raster.Reducer) string {
	key := e.reducer(reducers[0])
	for _, r := range reducers[1:] {
		key = e.invoke("Reducer.combine", map[string]any{
			"reducer1":     ref(key),
			"reducer2":     ref(e.reducer(r)),
			"sharedInputs": constant(true),
			"outputPrefix": constant(""),
		})
	}
	return key
}

// encodeQuery translates the op chain into a value graph and returns the
// key of the final image node.
func (e *encoder) encodeQuery(q raster.Query) (string, error) {
	var cur string
	for _, op := range q.Ops() {
		switch op.Kind {
		case raster.OpCollection:
			cur = e.invoke("ImageCollection.load", map[string]any{"id": constant(op.Name)})
		case raster.OpImage:
			cur = e.invoke("Image.load", map[string]any{"id": constant(op.Name)})
			e.composited = true
		case raster.OpFilterBounds:
			filter := e.invoke("Filter.intersects", map[string]any{
				"leftField":  constant(".all"),
				"rightValue": ref(e.geometry(op.Region)),
			})
			cur = e.invoke("Collection.filter", map[string]any{"collection": ref(cur), "filter": ref(filter)})
		case raster.OpFilterDate:
			filter := e.invoke("Filter.date", map[string]any{
				"start": constant(op.Window.StartDate()),
				"end":   constant(op.Window.EndDate()),
			})
			cur = e.invoke("Collection.filter", map[string]any{"collection": ref(cur), "filter": ref(filter)})
		case raster.OpFilterLT:
			filter := e.invoke("Filter.lessThan", map[string]any{
				"leftField":  constant(op.Name),
				"rightValue": constant(op.Num),
			})
			cur = e.invoke("Collection.filter", map[string]any{"collection": ref(cur), "filter": ref(filter)})
		case raster.OpFilterEq:
			filter := e.invoke("Filter.equals", map[string]any{
				"leftField":  constant(op.Name),
				"rightValue": constant(op.Str),
			})
			cur = e.invoke("Collection.filter", map[string]any{"collection": ref(cur), "filter": ref(filter)})
		case raster.OpFilterListContains:
			filter := e.invoke("Filter.listContains", map[string]any{
				"leftField":  constant(op.Name),
				"rightValue": constant(op.Str),
			})
			cur = e.invoke("Collection.filter", map[string]any{"collection": ref(cur), "filter": ref(filter)})
		case raster.OpMaskQABits:
			cur = e.mapOverCollection(cur, func(img map[string]any) string {
				var maskBits int64
				for _, bit := range op.Bits {
					maskBits |= 1 << bit
				}
				qa := e.invoke("Image.select", map[string]any{
					"input":         img,
					"bandSelectors": constant([]string{op.Name}),
				})
				flagged := e.invoke("Image.bitwiseAnd", map[string]any{
					"image1": ref(qa),
					"image2": ref(e.invoke("Image.constant", map[string]any{"value": constant(maskBits)})),
				})
				clear := e.invoke("Image.eq", map[string]any{
					"image1": ref(flagged),
					"image2": ref(e.invoke("Image.constant", map[string]any{"value": constant(0)})),
				})
				return e.invoke("Image.updateMask", map[string]any{"image": img, "mask": ref(clear)})
			})
		case raster.OpLinear:
			cur = e.imageOrMapped(cur, func(img map[string]any) string {
				scaled := e.invoke("Image.multiply", map[string]any{
					"image1": img,
					"image2": ref(e.invoke("Image.constant", map[string]any{"value": constant(op.Num)})),
				})
				if op.Num2 == 0 {
					return scaled
				}
				return e.invoke("Image.add", map[string]any{
					"image1": ref(scaled),
					"image2": ref(e.invoke("Image.constant", map[string]any{"value": constant(op.Num2)})),
				})
			})
		case raster.OpMultiply:
			cur = e.imageOrMapped(cur, func(img map[string]any) string {
				return e.invoke("Image.multiply", map[string]any{
					"image1": img,
					"image2": ref(e.invoke("Image.constant", map[string]any{"value": constant(op.Num)})),
				})
			})
		case raster.OpSelect:
			fn := "Collection.select"
			argName := "collection"
			if e.composited {
				fn, argName = "Image.select", "input"
			}
			args := map[string]any{argName: ref(cur)}
			if fn == "Image.select" {
				args["bandSelectors"] = constant(op.Bands)
			} else {
				args["selectors"] = constant(op.Bands)
			}
			cur = e.invoke(fn, args)
		case raster.OpNormalizedDiff:
			cur = e.invoke("Image.normalizedDifference", map[string]any{
				"input":     ref(cur),
				"bandNames": constant(op.Bands),
			})
		case raster.OpExpression:
			bands := map[string]any{}
			for name, band := range op.Vars {
				bands[name] = ref(e.invoke("Image.select", map[string]any{
					"input":         ref(cur),
					"bandSelectors": constant([]string{band}),
				}))
			}
			cur = e.invoke("Image.expression", map[string]any{
				"expression": constant(op.Expr),
				"map":        bands,
			})
		case raster.OpComposite:
			cur = e.invoke("ImageCollection.reduce", map[string]any{
				"collection": ref(cur),
				"reducer":    ref(e.combinedReducer(op.Reducers)),
			})
			// reduce() suffixes every band; restore plain names for the
			// single-reducer case to match client-library composites.
			if len(op.Reducers) == 1 {
				cur = e.invoke("Image.regexpRename", map[string]any{
					"input":       ref(cur),
					"regex":       constant("_" + string(op.Reducers[0]) + "$"),
					"replacement": constant(""),
				})
			}
			e.composited = true
		case raster.OpSlope:
			cur = e.invoke("Terrain.slope", map[string]any{"input": ref(cur)})
		default:
			return "", fmt.Errorf("ee: unsupported op kind %d", op.Kind)
		}
	}
	if cur == "" {
		return "", fmt.Errorf("ee: empty query")
	}
	return cur, nil
}

// imageOrMapped applies an image transformation directly once the time
// series has been composited, or maps it over the collection otherwise.
func (e *encoder) imageOrMapped(cur string, build func(img map[string]any) string) string {
	if e.composited {
		return build(ref(cur))
	}
	return e.mapOverCollection(cur, build)
}

// mapOverCollection wraps build into a lambda applied per scene.
func (e *encoder) mapOverCollection(cur string, build func(img map[string]any) string) string {
	body := build(argRef("img"))
	lambda := e.add(map[string]any{
		"functionDefinitionValue": map[string]any{
			"argumentNames": []string{"img"},
			"body":          body,
		},
	})
	return e.invoke("Collection.map", map[string]any{
		"collection":    ref(cur),
		"baseAlgorithm": ref(lambda),
	})
}
