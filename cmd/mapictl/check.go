package main

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/prop"
	"github.com/joshuapare/mapikit/mapi/sys"
)

var (
	checkHeap bool
)

func init() {
	cmd := newCheckCmd()
	cmd.Flags().BoolVar(&checkHeap, "heap", false, "Check a fresh heap allocator instead of the process default")
	rootCmd.AddCommand(cmd)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run allocation self-checks",
		Long: `The check command allocates, chains, reinterprets, iterates and frees
buffers and verifies that every root is freed exactly once.

Example:
  mapictl check
  mapictl check --heap --region-size 4096
  mapictl check --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
	return cmd
}

// CheckResult is the outcome of one self-check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// CheckReport is the full output of the check command.
type CheckReport struct {
	Allocator string        `json:"allocator"`
	Checks    []CheckResult `json:"checks"`
	Passed    bool          `json:"passed"`
}

type check struct {
	name string
	run  func(a *countingAllocator) error
}

var checks = []check{
	{"root-and-chained", checkRootAndChained},
	{"into-too-small", checkIntoTooSmall},
	{"round-trip", checkRoundTrip},
	{"iterate", checkIterate},
	{"property-values", checkPropertyValues},
}

func runCheck() error {
	var (
		base sys.Allocator
		name string
	)
	if checkHeap {
		h, err := newHeap()
		if err != nil {
			return err
		}
		defer h.Close()
		base, name = h, "heap"
	} else {
		base = alloc.Default()
		name = fmt.Sprintf("%T", base)
	}

	report := runChecks(base, name)

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printInfo("Allocator: %s\n", report.Allocator)
		for _, c := range report.Checks {
			status := "PASS"
			if !c.Passed {
				status = "FAIL"
			}
			printInfo("  %-18s %s\n", c.Name, status)
			if c.Detail != "" && (!c.Passed || verbose) {
				printInfo("    %s\n", c.Detail)
			}
		}
	}
	if !report.Passed {
		return errors.New("one or more checks failed")
	}
	return nil
}

func runChecks(base sys.Allocator, name string) CheckReport {
	report := CheckReport{Allocator: name, Passed: true}
	for _, c := range checks {
		printVerbose("Running %s\n", c.name)
		ca := newCountingAllocator(base)
		res := CheckResult{Name: c.name, Passed: true}
		if err := c.run(ca); err != nil {
			res.Passed = false
			res.Detail = err.Error()
		} else if err := ca.balanced(); err != nil {
			res.Passed = false
			res.Detail = err.Error()
		}
		if !res.Passed {
			report.Passed = false
		}
		report.Checks = append(report.Checks, res)
	}
	return report
}

// countingAllocator forwards to another allocator and counts frees per root.
type countingAllocator struct {
	sys.Allocator

	mu    sync.Mutex
	roots map[unsafe.Pointer]int
}

func newCountingAllocator(a sys.Allocator) *countingAllocator {
	return &countingAllocator{Allocator: a, roots: map[unsafe.Pointer]int{}}
}

func (c *countingAllocator) AllocateBuffer(size uint32) (sys.HRESULT, unsafe.Pointer) {
	status, p := c.Allocator.AllocateBuffer(size)
	if !status.Failed() && p != nil {
		c.mu.Lock()
		c.roots[p] = 0
		c.mu.Unlock()
	}
	return status, p
}

func (c *countingAllocator) FreeBuffer(p unsafe.Pointer) {
	c.mu.Lock()
	c.roots[p]++
	c.mu.Unlock()
	c.Allocator.FreeBuffer(p)
}

func (c *countingAllocator) frees(p unsafe.Pointer) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roots[p]
}

// balanced reports an error unless every root was freed exactly once.
func (c *countingAllocator) balanced() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, n := range c.roots {
		if n != 1 {
			return fmt.Errorf("root %p freed %d times", p, n)
		}
	}
	return nil
}

func checkRootAndChained(a *countingAllocator) error {
	for _, rootFirst := range []bool{true, false} {
		root, err := alloc.New[uint32](a, 4)
		if err != nil {
			return err
		}
		if root.ByteCount() != 16 {
			return fmt.Errorf("root byte count %d, want 16", root.ByteCount())
		}
		more, err := alloc.Chain[uint8](root, 20)
		if err != nil {
			root.Close()
			return err
		}
		if more.ByteCount() != 20 {
			return fmt.Errorf("chained byte count %d, want 20", more.ByteCount())
		}
		if more.Root() != root.Ptr() {
			return errors.New("chained buffer does not share the root pointer")
		}
		ptr := root.Ptr()
		first, second := root.Close, more.Close
		if !rootFirst {
			first, second = second, first
		}
		if err := first(); err != nil {
			return err
		}
		if n := a.frees(ptr); n != 0 {
			return fmt.Errorf("root freed %d times while a handle was open", n)
		}
		if err := second(); err != nil {
			return err
		}
		if n := a.frees(ptr); n != 1 {
			return fmt.Errorf("root freed %d times, want 1", n)
		}
	}
	return nil
}

func checkIntoTooSmall(a *countingAllocator) error {
	u, err := alloc.New[uint8](a, 4)
	if err != nil {
		return err
	}
	defer u.Close()
	if _, err := alloc.Into[uint64](u); !errors.Is(err, alloc.ErrOutOfBounds) {
		return fmt.Errorf("into uint64: got %v, want %v", err, alloc.ErrOutOfBounds)
	}
	return u.WriteSlice(func(b []uint8) error {
		if len(b) != 4 {
			return fmt.Errorf("source has %d elements after failed into, want 4", len(b))
		}
		return nil
	})
}

func checkRoundTrip(a *countingAllocator) error {
	want := make([]byte, 1000)
	for i := range want {
		want[i] = byte(i * 31)
	}
	u, err := alloc.New[byte](a, len(want))
	if err != nil {
		return err
	}
	if err := u.WriteSlice(func(b []byte) error {
		copy(b, want)
		return nil
	}); err != nil {
		u.Close()
		return err
	}
	b := u.AssumeInit()
	defer b.Close()
	return b.Read(func(got []byte) error {
		if !bytes.Equal(got, want) {
			return errors.New("bytes read back differ from bytes written")
		}
		return nil
	})
}

func checkIterate(a *countingAllocator) error {
	// 5 whole uint32 values plus a 3 byte remainder.
	raw, err := alloc.New[byte](a, 23)
	if err != nil {
		return err
	}
	u, err := alloc.Into[uint32](raw)
	if err != nil {
		raw.Close()
		return err
	}
	defer u.Close()

	next := uintptr(u.Ptr())
	n := 0
	for item := range u.Iter().All() {
		if uintptr(item.Ptr()) != next || item.ByteCount() != 4 {
			item.Close()
			return fmt.Errorf("item %d at %#x (%d bytes), want %#x (4 bytes)", n, item.Ptr(), item.ByteCount(), next)
		}
		next += 4
		n++
		if err := item.Close(); err != nil {
			return err
		}
	}
	if n != 5 {
		return fmt.Errorf("iterated %d items, want 5", n)
	}
	return nil
}

func checkPropertyValues(a *countingAllocator) error {
	vals, err := alloc.New[prop.SPropValue](a, 2)
	if err != nil {
		return err
	}
	name, err := alloc.Chain[uint16](vals, 5)
	if err != nil {
		vals.Close()
		return err
	}
	err = name.WriteSlice(func(s []uint16) error {
		copy(s, []uint16{'m', 'a', 'p', 'i', 0})
		return nil
	})
	if err == nil {
		err = vals.WriteSlice(func(s []prop.SPropValue) error {
			s[0].SetPointer(prop.NewTag(prop.PT_UNICODE, 0x3001), name.Ptr())
			prop.SetScalar(&s[1], prop.NewTag(prop.PT_LONG, 0x0E08), int32(4096))
			return nil
		})
	}
	name.Close()
	if err != nil {
		vals.Close()
		return err
	}

	ready := vals.AssumeInit()
	defer ready.Close()
	decoded, err := prop.DecodeBuffer(ready)
	if err != nil {
		return err
	}
	if len(decoded) != 2 || decoded[0] != prop.Value(prop.Unicode("mapi")) || decoded[1] != prop.Value(prop.Long(4096)) {
		return fmt.Errorf("decoded %v", decoded)
	}
	return nil
}
