package canvas

import "image/color"

// Color is a palette index. Unset marks a pixel that was never painted; it is
// distinct from an explicit black stroke.
type Color uint8

const (
	Unset Color = iota
	Red
	Orange
	Yellow
	Green
	Cyan
	Blue
	Purple
	Pink
	White
	Gray
	Black
	Brown
	Magenta
	Lime
	Navy

	paletteSize = int(Navy) + 1
)

// DefaultColor is the palette entry a fresh brush starts with.
const DefaultColor = White

var paletteNames = [paletteSize]string{
	Unset:   "unset",
	Red:     "red",
	Orange:  "orange",
	Yellow:  "yellow",
	Green:   "green",
	Cyan:    "cyan",
	Blue:    "blue",
	Purple:  "purple",
	Pink:    "pink",
	White:   "white",
	Gray:    "gray",
	Black:   "black",
	Brown:   "brown",
	Magenta: "magenta",
	Lime:    "lime",
	Navy:    "navy",
}

var paletteRGB = [paletteSize]color.RGBA{
	Unset:   {0, 0, 0, 255},
	Red:     {255, 0, 0, 255},
	Orange:  {255, 150, 0, 255},
	Yellow:  {255, 255, 0, 255},
	Green:   {0, 255, 0, 255},
	Cyan:    {0, 255, 255, 255},
	Blue:    {0, 100, 255, 255},
	Purple:  {200, 0, 255, 255},
	Pink:    {255, 192, 203, 255},
	White:   {255, 255, 255, 255},
	Gray:    {128, 128, 128, 255},
	Black:   {0, 0, 0, 255},
	Brown:   {139, 69, 19, 255},
	Magenta: {255, 0, 255, 255},
	Lime:    {50, 205, 50, 255},
	Navy:    {0, 0, 128, 255},
}

// paletteLetters are the single-character codes used by the ASCII vision.
var paletteLetters = [paletteSize]byte{
	Unset:   '.',
	Red:     'R',
	Orange:  'O',
	Yellow:  'Y',
	Green:   'G',
	Cyan:    'C',
	Blue:    'B',
	Purple:  'V',
	Pink:    'P',
	White:   '*',
	Gray:    '/',
	Black:   'K',
	Brown:   'W',
	Magenta: 'M',
	Lime:    'L',
	Navy:    'N',
}

func (c Color) Valid() bool { return c > Unset && int(c) < paletteSize }

func (c Color) String() string {
	if int(c) >= paletteSize {
		return "invalid"
	}
	return paletteNames[c]
}

func (c Color) RGBA() color.RGBA {
	if int(c) >= paletteSize {
		return color.RGBA{A: 255}
	}
	return paletteRGB[c]
}

// Letter returns the vision code for the color.
func (c Color) Letter() byte {
	if int(c) >= paletteSize {
		return '?'
	}
	return paletteLetters[c]
}

// ParseColor resolves a palette keyword. The boolean reports recognition.
func ParseColor(name string) (Color, bool) {
	for i := int(Unset) + 1; i < paletteSize; i++ {
		if paletteNames[i] == name {
			return Color(i), true
		}
	}
	return Unset, false
}

// ColorNames lists the paintable palette keywords in palette order.
func ColorNames() []string {
	names := make([]string, 0, paletteSize-1)
	for i := int(Unset) + 1; i < paletteSize; i++ {
		names = append(names, paletteNames[i])
	}
	return names
}

// fromRGB maps an exact palette RGB value back to its index. Unknown values
// map to Unset; black maps to Unset since the background renders black too.
func fromRGB(rgb color.RGBA) Color {
	if rgb == (color.RGBA{0, 0, 0, 255}) {
		return Unset
	}
	for i := int(Unset) + 1; i < paletteSize; i++ {
		if paletteRGB[i] == rgb {
			return Color(i)
		}
	}
	return Unset
}
