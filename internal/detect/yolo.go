package detect

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"

	"github.com/sweeney/counterwatch/internal/geometry"
)

const (
	defaultInputSize  = 640
	defaultConfidence = 0.25
	defaultIoU        = 0.45
	yoloAttrs         = 4 // cx, cy, w, h before the class scores
	letterboxGray     = 114
)

// YOLOConfig configures a YOLOv8 ONNX detector.
type YOLOConfig struct {
	ModelPath string
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search path.
	LibraryPath string
	InputSize   int
	Confidence  float32
	IoU         float32
	// Classes restricts detections to these COCO indices. Empty keeps all.
	Classes []int
	Threads int
}

func (c *YOLOConfig) setDefaults() {
	if c.InputSize <= 0 {
		c.InputSize = defaultInputSize
	}
	if c.Confidence <= 0 {
		c.Confidence = defaultConfidence
	}
	if c.IoU <= 0 {
		c.IoU = defaultIoU
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
}

// YOLODetector runs a YOLOv8 export with output shape [1, 4+classes, anchors].
type YOLODetector struct {
	cfg        YOLOConfig
	session    *ort.DynamicAdvancedSession
	numClasses int
	numAnchors int
	allow      map[int]bool
	mu         sync.Mutex
}

var ortInit sync.Once
var ortInitErr error

// NewYOLODetector loads the model. Errors wrap ErrModelLoad.
func NewYOLODetector(cfg YOLOConfig) (*YOLODetector, error) {
	cfg.setDefaults()
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	ortInit.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("%w: init onnxruntime: %v", ErrModelLoad, ortInitErr)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %v", ErrModelLoad, err)
	}
	defer opts.Destroy()

	if err := opts.SetIntraOpNumThreads(cfg.Threads); err != nil {
		return nil, fmt.Errorf("%w: set threads: %v", ErrModelLoad, err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("%w: set threads: %v", ErrModelLoad, err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{"images"}, []string{"output0"}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrModelLoad, cfg.ModelPath, err)
	}

	d := &YOLODetector{
		cfg:        cfg,
		session:    session,
		numClasses: len(CocoLabels),
		numAnchors: anchorCount(cfg.InputSize),
	}
	if len(cfg.Classes) > 0 {
		d.allow = make(map[int]bool, len(cfg.Classes))
		for _, c := range cfg.Classes {
			d.allow[c] = true
		}
	}
	return d, nil
}

// anchorCount is the number of predictions for strides 8, 16 and 32.
func anchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		g := size / stride
		n += g * g
	}
	return n
}

// Detect runs the model on img.
func (d *YOLODetector) Detect(img image.Image) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, lb := letterboxTensor(img, d.cfg.InputSize)
	size := int64(d.cfg.InputSize)
	input, err := ort.NewTensor(ort.NewShape(1, 3, size, size), data)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(yoloAttrs+d.numClasses), int64(d.numAnchors)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	if err := d.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}

	dets := decodeOutput(output.GetData(), d.numClasses, d.numAnchors, lb, d.cfg.Confidence, d.allow)
	return nonMaxSuppression(dets, d.cfg.IoU), nil
}

// Close releases the session.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		err := d.session.Destroy()
		d.session = nil
		return err
	}
	return nil
}

// letterbox records how a frame was fitted into the square model input.
type letterbox struct {
	scale  float64
	padX   float64
	padY   float64
	bounds image.Rectangle
}

// toFrame maps a box from model coordinates back onto the frame.
func (lb letterbox) toFrame(cx, cy, w, h float32) geometry.Box {
	x1 := (float64(cx-w/2) - lb.padX) / lb.scale
	y1 := (float64(cy-h/2) - lb.padY) / lb.scale
	x2 := (float64(cx+w/2) - lb.padX) / lb.scale
	y2 := (float64(cy+h/2) - lb.padY) / lb.scale
	clamp := func(v float64, lo, hi int) int {
		i := int(v)
		if i < lo {
			return lo
		}
		if i > hi {
			return hi
		}
		return i
	}
	b := lb.bounds
	ox, oy := float64(b.Min.X), float64(b.Min.Y)
	return geometry.Box{
		X1: clamp(x1+ox, b.Min.X, b.Max.X),
		Y1: clamp(y1+oy, b.Min.Y, b.Max.Y),
		X2: clamp(x2+ox, b.Min.X, b.Max.X),
		Y2: clamp(y2+oy, b.Min.Y, b.Max.Y),
	}
}

// letterboxTensor scales img into a size x size canvas keeping aspect ratio
// and returns it as a normalized CHW RGB tensor.
func letterboxTensor(img image.Image, size int) ([]float32, letterbox) {
	src := img.Bounds()
	scale := min(float64(size)/float64(src.Dx()), float64(size)/float64(src.Dy()))
	w := int(float64(src.Dx()) * scale)
	h := int(float64(src.Dy()) * scale)
	padX := (size - w) / 2
	padY := (size - h) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.RGBA{letterboxGray, letterboxGray, letterboxGray, 255}}, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(canvas, image.Rect(padX, padY, padX+w, padY+h), img, src, draw.Src, nil)

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < size; x++ {
			i := y*size + x
			data[i] = float32(row[x*4]) / 255
			data[plane+i] = float32(row[x*4+1]) / 255
			data[2*plane+i] = float32(row[x*4+2]) / 255
		}
	}

	return data, letterbox{scale: scale, padX: float64(padX), padY: float64(padY), bounds: src}
}

// decodeOutput reads an attribute-major [4+classes][anchors] YOLOv8 output.
func decodeOutput(data []float32, numClasses, numAnchors int, lb letterbox, conf float32, allow map[int]bool) []Detection {
	if len(data) < (yoloAttrs+numClasses)*numAnchors {
		return nil
	}
	var dets []Detection
	for a := 0; a < numAnchors; a++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < numClasses; c++ {
			if allow != nil && !allow[c] {
				continue
			}
			s := data[(yoloAttrs+c)*numAnchors+a]
			if s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < conf {
			continue
		}
		cx := data[a]
		cy := data[numAnchors+a]
		w := data[2*numAnchors+a]
		h := data[3*numAnchors+a]
		dets = append(dets, Detection{
			Box:   lb.toFrame(cx, cy, w, h),
			Class: best,
			Label: LabelFor(best),
			Score: bestScore,
		})
	}
	return dets
}
