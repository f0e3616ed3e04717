package raster

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"terralens/catalog"
	"terralens/models"
)

// OfflineProvider materializes queries against deterministic synthetic
// scenes. It backs local development when no Earth Engine credentials are
// configured, and the test suite. Identical inputs always produce identical
// outputs.
type OfflineProvider struct{}

// NewOfflineProvider returns the synthetic provider.
func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

func (p *OfflineProvider) Name() string { return "offline" }

func (p *OfflineProvider) AreaHectares(_ context.Context, region models.Region) (float64, error) {
	return region.AreaHectares(), nil
}

func (p *OfflineProvider) ReduceRegion(_ context.Context, q Query, _ models.Region, red Reduction) (map[string]float64, error) {
	img, err := evaluate(q)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(img))
	for band, pixels := range img {
		valid := pixels[:0:0]
		for _, v := range pixels {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			return nil, models.E(models.CodeNoDataAvailable, "no valid pixels in band "+band, nil)
		}
		var v float64
		switch red.Reducer {
		case ReduceSum:
			v, err = stats.Sum(valid)
		case ReduceMax:
			v, err = stats.Max(valid)
		case ReduceMedian:
			v, err = stats.Median(valid)
		default:
			v, err = stats.Mean(valid)
		}
		if err != nil {
			return nil, models.E(models.CodeNoDataAvailable, "reduce band "+band, err)
		}
		out[band] = v
	}
	return out, nil
}

func (p *OfflineProvider) TileURL(_ context.Context, q Query, region models.Region, vis catalog.Visualization) (string, error) {
	if _, err := evaluate(q); err != nil {
		return "", models.E(models.CodeExportFailed, "cannot materialize map layer", err)
	}
	key := fmt.Sprintf("%s|%.4f,%.4f,%.4f,%.4f|%v-%v", q.Source(), region.North, region.South, region.East, region.West, vis.Min, vis.Max)
	return fmt.Sprintf("https://tiles.terralens.local/v1/maps/%016x/tiles/{z}/{x}/{y}", hash64(key)), nil
}

// Synthetic scenes are tiny grids; enough pixels to make spatial reducers
// and the slope gradient meaningful.
const (
	gridW     = 4
	gridH     = 4
	gridCells = gridW * gridH
)

// scene is one synthetic acquisition: per-band pixel grids, a validity mask
// and the metadata the filter stages match against.
type scene struct {
	bands    map[string][]float64
	mask     []bool
	metaNum  map[string]float64
	metaStr  map[string]string
	metaList map[string][]string
}

// evaluate runs the op chain over synthetic data and returns the final
// single image as band -> pixels.
func evaluate(q Query) (map[string][]float64, error) {
	var (
		scenes     []*scene
		img        map[string][]float64
		collection string
		regionKey  string
	)

	for _, op := range q.Ops() {
		switch op.Kind {
		case OpCollection:
			collection = op.Name
		case OpImage:
			img = synthImage(op.Name)
		case OpFilterBounds:
			regionKey = fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", op.Region.North, op.Region.South, op.Region.East, op.Region.West)
		case OpFilterDate:
			scenes = synthScenes(collection, regionKey, op.Window)
		case OpFilterLT:
			scenes = keep(scenes, func(s *scene) bool { return s.metaNum[op.Name] < op.Num })
		case OpFilterEq:
			scenes = keep(scenes, func(s *scene) bool { return s.metaStr[op.Name] == op.Str })
		case OpFilterListContains:
			scenes = keep(scenes, func(s *scene) bool {
				for _, v := range s.metaList[op.Name] {
					if v == op.Str {
						return true
					}
				}
				return false
			})
		case OpMaskQABits:
			for _, s := range scenes {
				qa := s.bands[op.Name]
				if qa == nil {
					continue
				}
				for i, raw := range qa {
					for _, bit := range op.Bits {
						if uint64(raw)&(1<<bit) != 0 {
							s.mask[i] = false
						}
					}
				}
			}
		case OpLinear:
			mapPixels(scenes, &img, func(v float64) float64 { return v*op.Num + op.Num2 })
		case OpMultiply:
			mapPixels(scenes, &img, func(v float64) float64 { return v * op.Num })
		case OpSelect:
			selectBands(scenes, &img, op.Bands)
		case OpNormalizedDiff:
			if err := normalizedDiff(scenes, &img, op.Bands[0], op.Bands[1]); err != nil {
				return nil, err
			}
		case OpExpression:
			if err := applyExpression(scenes, &img, op.Expr, op.Vars); err != nil {
				return nil, err
			}
		case OpComposite:
			if len(scenes) == 0 {
				return nil, models.E(models.CodeNoDataAvailable, "no scenes match the filter for "+collection, nil)
			}
			img = composite(scenes, op.Reducers)
			scenes = nil
		case OpSlope:
			img = slopeOf(img, op.Name)
		}
	}

	if img == nil {
		return nil, models.E(models.CodeInternal, "query was never composited to an image", nil)
	}
	return img, nil
}

func keep(scenes []*scene, pred func(*scene) bool) []*scene {
	out := scenes[:0:0]
	for _, s := range scenes {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}

// mapPixels applies fn to every band of every pending scene, or to the
// composited image when the time series has already collapsed.
func mapPixels(scenes []*scene, img *map[string][]float64, fn func(float64) float64) {
	apply := func(bands map[string][]float64) {
		for _, px := range bands {
			for i, v := range px {
				px[i] = fn(v)
			}
		}
	}
	if *img != nil {
		apply(*img)
		return
	}
	for _, s := range scenes {
		apply(s.bands)
	}
}

func selectBands(scenes []*scene, img *map[string][]float64, names []string) {
	filter := func(bands map[string][]float64) map[string][]float64 {
		out := make(map[string][]float64, len(names))
		for _, n := range names {
			if px, ok := bands[n]; ok {
				out[n] = px
			}
		}
		return out
	}
	if *img != nil {
		*img = filter(*img)
		return
	}
	for _, s := range scenes {
		s.bands = filter(s.bands)
	}
}

func normalizedDiff(scenes []*scene, img *map[string][]float64, a, b string) error {
	nd := func(bands map[string][]float64) (map[string][]float64, error) {
		pa, pb := bands[a], bands[b]
		if pa == nil || pb == nil {
			return nil, models.E(models.CodeInternal, fmt.Sprintf("bands %s/%s missing for normalized difference", a, b), nil)
		}
		out := make([]float64, len(pa))
		for i := range pa {
			denom := pa[i] + pb[i]
			if denom == 0 {
				out[i] = 0
				continue
			}
			out[i] = (pa[i] - pb[i]) / denom
		}
		return map[string][]float64{"nd": out}, nil
	}
	if *img != nil {
		res, err := nd(*img)
		if err != nil {
			return err
		}
		*img = res
		return nil
	}
	for _, s := range scenes {
		res, err := nd(s.bands)
		if err != nil {
			return err
		}
		s.bands = res
	}
	return nil
}

func applyExpression(scenes []*scene, img *map[string][]float64, expr string, vars map[string]string) error {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return models.E(models.CodeInternal, "malformed band expression", err)
	}
	run := func(bands map[string][]float64) (map[string][]float64, error) {
		n := 0
		for _, px := range bands {
			n = len(px)
			break
		}
		out := make([]float64, n)
		env := make(map[string]float64, len(vars))
		for i := 0; i < n; i++ {
			for name, band := range vars {
				px, ok := bands[band]
				if !ok {
					return nil, models.E(models.CodeInternal, "band "+band+" missing for expression", nil)
				}
				env[name] = px[i]
			}
			v, err := evalExpr(node, env)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return map[string][]float64{"constant": out}, nil
	}
	if *img != nil {
		res, err := run(*img)
		if err != nil {
			return err
		}
		*img = res
		return nil
	}
	for _, s := range scenes {
		res, err := run(s.bands)
		if err != nil {
			return err
		}
		s.bands = res
	}
	return nil
}

// evalExpr interprets the arithmetic subset shared with the provider's
// expression syntax: identifiers, numeric literals, + - * /, parentheses and
// unary minus.
func evalExpr(node ast.Expr, env map[string]float64) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		return strconv.ParseFloat(n.Value, 64)
	case *ast.Ident:
		v, ok := env[n.Name]
		if !ok {
			return 0, models.E(models.CodeInternal, "unknown identifier "+n.Name+" in band expression", nil)
		}
		return v, nil
	case *ast.ParenExpr:
		return evalExpr(n.X, env)
	case *ast.UnaryExpr:
		v, err := evalExpr(n.X, env)
		if err != nil {
			return 0, err
		}
		if n.Op == token.SUB {
			return -v, nil
		}
		return v, nil
	case *ast.BinaryExpr:
		l, err := evalExpr(n.X, env)
		if err != nil {
			return 0, err
		}
		r, err := evalExpr(n.Y, env)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return l + r, nil
		case token.SUB:
			return l - r, nil
		case token.MUL:
			return l * r, nil
		case token.QUO:
			if r == 0 {
				return 0, nil
			}
			return l / r, nil
		}
	}
	return 0, models.E(models.CodeInternal, "unsupported band expression node", nil)
}

// composite collapses the time series per pixel. Masked samples are skipped;
// a pixel with no valid samples becomes NaN.
func composite(scenes []*scene, reducers []Reducer) map[string][]float64 {
	out := make(map[string][]float64)
	for band := range scenes[0].bands {
		for _, r := range reducers {
			name := band
			if len(reducers) > 1 {
				name = band + "_" + string(r)
			}
			px := make([]float64, gridCells)
			for i := 0; i < gridCells; i++ {
				var samples []float64
				for _, s := range scenes {
					if bp, ok := s.bands[band]; ok && s.mask[i] {
						samples = append(samples, bp[i])
					}
				}
				if len(samples) == 0 {
					px[i] = math.NaN()
					continue
				}
				var v float64
				switch r {
				case ReduceSum:
					v, _ = stats.Sum(samples)
				case ReduceMax:
					v, _ = stats.Max(samples)
				case ReduceMedian:
					v, _ = stats.Median(samples)
				default:
					v, _ = stats.Mean(samples)
				}
				px[i] = v
			}
			out[name] = px
		}
	}
	return out
}

// slopeOf derives a per-pixel terrain gradient in degrees from the elevation
// band, assuming 30 m pixel spacing.
func slopeOf(img map[string][]float64, band string) map[string][]float64 {
	elev := img[band]
	if elev == nil {
		return img
	}
	const spacing = 30.0
	out := make([]float64, gridCells)
	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= gridW {
			x = gridW - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= gridH {
			y = gridH - 1
		}
		return elev[y*gridW+x]
	}
	for y := 0; y < gridH; y++ {
		for x := 0; x < gridW; x++ {
			dzdx := (at(x+1, y) - at(x-1, y)) / (2 * spacing)
			dzdy := (at(x, y+1) - at(x, y-1)) / (2 * spacing)
			out[y*gridW+x] = math.Atan(math.Sqrt(dzdx*dzdx+dzdy*dzdy)) * 180 / math.Pi
		}
	}
	return map[string][]float64{"slope": out}
}

// ---- synthetic data generation ----

func hash64(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// unit maps a key to a stable value in [0, 1).
func unit(key string) float64 {
	return float64(hash64(key)%100000) / 100000
}

// synthScenes generates one acquisition every five days across the window.
func synthScenes(collection, regionKey string, window models.DateWindow) []*scene {
	n := window.Days() / 5
	if n < 1 {
		n = 1
	}
	if n > 24 {
		n = 24
	}
	scenes := make([]*scene, 0, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("%s|%s|%s|%d", collection, regionKey, window.StartDate(), i)
		scenes = append(scenes, synthScene(collection, key))
	}
	return scenes
}

func synthScene(collection, key string) *scene {
	s := &scene{
		bands:    make(map[string][]float64),
		mask:     make([]bool, gridCells),
		metaNum:  make(map[string]float64),
		metaStr:  make(map[string]string),
		metaList: make(map[string][]string),
	}
	for i := range s.mask {
		s.mask[i] = true
	}

	fill := func(band string, base, spread float64) {
		px := make([]float64, gridCells)
		center := base + spread*unit(key+"|"+band)
		for i := range px {
			jitter := (unit(fmt.Sprintf("%s|%s|%d", key, band, i)) - 0.5) * spread * 0.2
			px[i] = center + jitter
		}
		s.bands[band] = px
	}

	switch collection {
	case CollectionS2:
		fill(BandBlue, 300, 400)
		fill(BandGreen, 400, 500)
		fill(BandRed, 500, 700)
		fill(BandNIR, 2500, 1500)
		fill(BandSWIR1, 1200, 800)
		qa := make([]float64, gridCells)
		for i := range qa {
			// Roughly one pixel in five carries a cloud or cirrus flag.
			if unit(fmt.Sprintf("%s|QA60|%d", key, i)) < 0.2 {
				qa[i] = 1 << qaBitCloud
			}
		}
		s.bands["QA60"] = qa
		s.metaNum["CLOUDY_PIXEL_PERCENTAGE"] = unit(key+"|cloud") * 40
	case CollectionS1:
		fill(BandVV, -15, 8)
		s.metaList["transmitterReceiverPolarisation"] = []string{"VV", "VH"}
		s.metaStr["instrumentMode"] = "IW"
	case CollectionMODIS:
		// Raw digital numbers that convert to 18..32 C.
		celsius := 18 + unit(key+"|lst")*14
		fill(BandLST, (celsius+273.15)/0.02, 50)
	case CollectionCHIRPS:
		fill(BandPrecip, 2, 28)
	default:
		fill("constant", 0, 1)
	}
	return s
}

// synthImage generates the static terrain raster with a consistent tilt so
// slope values are non-trivial.
func synthImage(id string) map[string][]float64 {
	px := make([]float64, gridCells)
	for y := 0; y < gridH; y++ {
		for x := 0; x < gridW; x++ {
			base := 200 + unit(fmt.Sprintf("%s|%d|%d", id, x, y))*300
			px[y*gridW+x] = base + float64(x+y)*15
		}
	}
	return map[string][]float64{BandElevation: px}
}
