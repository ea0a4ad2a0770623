package crashdialog

import (
	"encoding/binary"
	"testing"

	"github.com/brianmayclone/anyos-sub003/layer"
)

func TestIsFatalBoundaries(t *testing.T) {
	cases := []struct {
		code int32
		want bool
	}{
		{0, false},
		{128, false},
		{129, true},
		{255, true},
		{256, false},
	}
	for _, c := range cases {
		if got := IsFatal(c.code); got != c.want {
			t.Errorf("IsFatal(%d) = %v, want %v", c.code, got, c.want)
		}
	}
}

func encodeReportBlob(title, message string) []byte {
	var buf []byte
	for _, s := range []string{title, message} {
		lenBytes := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBytes, uint32(len(s)))
		buf = append(buf, lenBytes...)
		buf = append(buf, []byte(s)...)
	}
	return buf
}

func TestDecodeReportRoundTrips(t *testing.T) {
	blob := encodeReportBlob("App Crashed", "Segmentation fault")
	r, err := DecodeReport(blob, 42, 139)
	if err != nil {
		t.Fatalf("DecodeReport: %v", err)
	}
	if r.ProcessID != 42 || r.ExitCode != 139 {
		t.Fatalf("unexpected report header: %+v", r)
	}
	if r.Title != "App Crashed" || r.Message != "Segmentation fault" {
		t.Fatalf("unexpected report text: %+v", r)
	}
}

func TestDecodeReportRejectsTruncated(t *testing.T) {
	if _, err := DecodeReport([]byte{1, 2, 3}, 1, 1); err != ErrMalformed {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestDecodeReportRejectsOversizedLength(t *testing.T) {
	lenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBytes, 1<<20)
	if _, err := DecodeReport(lenBytes, 1, 1); err != ErrMalformed {
		t.Fatalf("want ErrMalformed for an oversized length, got %v", err)
	}
}

func TestShowCentersDialogOnScreen(t *testing.T) {
	stack := layer.NewStack()
	m := NewManager(stack, 1024, 768)
	id, rect := m.Show(FallbackReport(1, 139))

	if rect.X != (1024-dialogWidth)/2 || rect.Y != (768-dialogHeight)/2 {
		t.Fatalf("dialog should be centered, got %+v", rect)
	}
	l, ok := stack.Get(id)
	if !ok {
		t.Fatal("Show should add a layer to the stack")
	}
	if l.Tier != layer.TierAlwaysOnTop {
		t.Fatal("a crash dialog must be always-on-top")
	}
	if l.Pixels == nil {
		t.Fatal("Show should render pixels into the new layer")
	}
}

func TestClickingQuitDismissesDialog(t *testing.T) {
	stack := layer.NewStack()
	m := NewManager(stack, 1024, 768)
	id, _ := m.Show(FallbackReport(1, 139))

	dismissed, _ := m.HandleClick(id, 10, 10)
	if dismissed {
		t.Fatal("clicking outside the Quit button should not dismiss")
	}
	if !m.Owns(id) {
		t.Fatal("dialog should still exist")
	}

	d := m.dialogs[id]
	bx, by, bw, bh := d.quitButtonRect()
	dismissed, damaged := m.HandleClick(id, bx+bw/2, by+bh/2)
	if !dismissed {
		t.Fatal("clicking the Quit button should dismiss the dialog")
	}
	if damaged.Empty() {
		t.Fatal("dismissing should report a damaged rect")
	}
	if m.Owns(id) {
		t.Fatal("dismissed dialog should no longer be owned")
	}
	if _, ok := stack.Get(id); ok {
		t.Fatal("dismissing should remove the layer from the stack")
	}
}

func TestClearAllDismissesEverything(t *testing.T) {
	stack := layer.NewStack()
	m := NewManager(stack, 1024, 768)
	m.Show(FallbackReport(1, 139))
	m.Show(FallbackReport(2, 139))

	rects := m.ClearAll()
	if len(rects) != 2 {
		t.Fatalf("want 2 damaged rects, got %d", len(rects))
	}
	if m.Count() != 0 {
		t.Fatal("ClearAll should leave no open dialogs")
	}
}
