package detect

import "strconv"

// CocoLabels are the 80 class names of the COCO dataset, in model order.
var CocoLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

// PersonClass is the COCO index of "person".
const PersonClass = 0

// LabelFor returns the COCO label for a class index.
func LabelFor(class int) string {
	if class >= 0 && class < len(CocoLabels) {
		return CocoLabels[class]
	}
	return "class" + strconv.Itoa(class)
}

// ClassFor returns the COCO index of a label, or -1.
func ClassFor(label string) int {
	for i, l := range CocoLabels {
		if l == label {
			return i
		}
	}
	return -1
}
