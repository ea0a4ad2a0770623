package desktopicons

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/draw"
	_ "image/png"
	"os"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
)

// IconLoader supplies the ARGB pixels for a mounted volume's desktop icon.
// Implementations never return an error: a failure to find or decode a
// bitmap falls back to a generated placeholder, mirroring the original's
// load_device_icon/generate_fallback_icon chain.
type IconLoader interface {
	LoadIcon(fsType, mountPath string) []byte
}

// DiskLoader loads .ico files from IconDir, selecting the icon by mount
// path and filesystem type the same way original_source's
// load_device_icon does, then scales to IconSize with x/image/draw's
// bilinear scaler.
type DiskLoader struct {
	IconDir string
}

func (d DiskLoader) LoadIcon(fsType, mountPath string) []byte {
	path := d.iconPath(fsType, mountPath)
	if pix := d.tryLoad(path); pix != nil {
		return pix
	}
	if generic := d.iconDir() + "/generic.ico"; path != generic {
		if pix := d.tryLoad(generic); pix != nil {
			return pix
		}
	}
	return fallbackIcon()
}

func (d DiskLoader) iconDir() string {
	if d.IconDir != "" {
		return d.IconDir
	}
	return "/System/media/icons/devices"
}

func (d DiskLoader) iconPath(fsType, mountPath string) string {
	dir := d.iconDir()
	isUSB := strings.HasPrefix(strings.ToLower(mountPath), "/mnt/usb")
	switch {
	case isUSB && fsType == "iso9660":
		return dir + "/usb/cdrom.ico"
	case isUSB:
		return dir + "/usb/storage.ico"
	case fsType == "iso9660":
		return dir + "/cdrom.ico"
	default:
		return dir + "/generic.ico"
	}
}

func (d DiskLoader) tryLoad(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 || len(data) > 256*1024 {
		return nil
	}
	img, err := decodeICO(data, IconSize)
	if err != nil {
		return nil
	}
	return scaleToIconSize(img)
}

var errNoICOEntries = errors.New("desktopicons: ico file has no image entries")

// decodeICO parses a classic Windows ICO directory and decodes the entry
// closest to the requested size. Modern icon sets embed PNG images per
// entry (the common case); this only supports that, which covers
// anyOS's shipped icon set.
func decodeICO(data []byte, want int) (image.Image, error) {
	if len(data) < 6 || binary.LittleEndian.Uint16(data[2:4]) != 1 {
		return nil, errNoICOEntries
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 {
		return nil, errNoICOEntries
	}

	type entry struct {
		size   int
		offset uint32
		length uint32
	}
	entries := make([]entry, 0, count)
	for i := 0; i < count; i++ {
		off := 6 + i*16
		if off+16 > len(data) {
			break
		}
		w := int(data[off])
		if w == 0 {
			w = 256
		}
		length := binary.LittleEndian.Uint32(data[off+8 : off+12])
		offset := binary.LittleEndian.Uint32(data[off+12 : off+16])
		entries = append(entries, entry{size: w, offset: offset, length: length})
	}
	if len(entries) == 0 {
		return nil, errNoICOEntries
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if abs(e.size-want) < abs(best.size-want) {
			best = e
		}
	}
	if int(best.offset)+int(best.length) > len(data) {
		return nil, errNoICOEntries
	}
	blob := data[best.offset : best.offset+best.length]
	img, _, err := image.Decode(bytes.NewReader(blob))
	return img, err
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func scaleToIconSize(src image.Image) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, IconSize, IconSize))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst.Pix
}

func fallbackIcon() []byte {
	pix := make([]byte, IconSize*IconSize*4)
	for y := 4; y < IconSize-4; y++ {
		for x := 4; x < IconSize-4; x++ {
			off := (y*IconSize + x) * 4
			pix[off], pix[off+1], pix[off+2], pix[off+3] = 0x80, 0x80, 0x80, 0xff
		}
	}
	return pix
}

// FallbackLoader always returns the generated placeholder icon, used when
// no on-disk icon directory is configured (tests, headless backend).
type FallbackLoader struct{}

func (FallbackLoader) LoadIcon(fsType, mountPath string) []byte { return fallbackIcon() }

func deriveLabel(mountPath, fsType string) string {
	if mountPath == "/" {
		return "System"
	}
	name := mountPath
	if i := strings.LastIndexByte(mountPath, '/'); i >= 0 {
		name = mountPath[i+1:]
	}
	switch {
	case name == "":
		switch fsType {
		case "iso9660":
			return "CD-ROM"
		case "smb":
			return "Network"
		default:
			return "Drive"
		}
	case strings.HasPrefix(name, "usb"):
		return "USB Drive"
	case strings.HasPrefix(name, "cdrom"):
		return "CD-ROM"
	default:
		return name
	}
}

func isEjectable(mountPath, fsType string) bool {
	if mountPath == "/" {
		return false
	}
	if strings.HasPrefix(mountPath, "/mnt/") {
		return true
	}
	return fsType == "smb"
}
