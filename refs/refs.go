package refs

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/gitodb/gitodb/internal/trace"
	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/storage/dotgit"
)

// References is the reference layer described in spec.md §4.H: loose ref
// files layered over an optional packed-refs fallback, with symbolic
// chasing for HEAD and other symbolic refs.
type References struct {
	fs  billy.Filesystem
	dir *dotgit.DotGit
}

// New returns a References rooted at dir.
func New(fs billy.Filesystem, dir *dotgit.DotGit) *References {
	return &References{fs: fs, dir: dir}
}

// readPackedRefs loads and parses packed-refs, returning an empty slice if
// the file does not exist.
func (r *References) readPackedRefs() ([]Line, error) {
	path := r.dir.PackedRefsPath()
	b, err := readFile(r.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(b), nil
}

func readFile(fs billy.Filesystem, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Exists reports whether ref has either a loose file or a packed-refs
// entry.
func (r *References) Exists(ref Reference) (bool, error) {
	if r.dir.Exists(ref.String()) {
		return true, nil
	}

	lines, err := r.readPackedRefs()
	if err != nil {
		return false, err
	}
	_, ok := Find(lines, ref)
	return ok, nil
}

// List returns every known reference name: loose refs under refs/ plus
// the names in packed-refs, de-duplicated and sorted (spec.md §4.H).
func (r *References) List() ([]Reference, error) {
	seen := make(map[Reference]struct{})
	var out []Reference

	if err := r.walkRefs(r.dir.RefsDir(), &seen, &out); err != nil {
		return nil, err
	}

	lines, err := r.readPackedRefs()
	if err != nil {
		return nil, err
	}
	for ref := range References(lines) {
		if _, ok := seen[ref]; !ok {
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *References) walkRefs(dir string, seen *map[Reference]struct{}, out *[]Reference) error {
	infos, err := r.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, fi := range infos {
		path := r.fs.Join(dir, fi.Name())
		if fi.IsDir() {
			if err := r.walkRefs(path, seen, out); err != nil {
				return err
			}
			continue
		}
		ref := Reference(path)
		if _, ok := (*seen)[ref]; !ok {
			(*seen)[ref] = struct{}{}
			*out = append(*out, ref)
		}
	}
	return nil
}

// Remove deletes ref's loose file. A packed-refs entry, if any, is left
// in place: resolving it requires rewriting the whole packed-refs file,
// which is outside this layer's write surface (spec.md §9 treats
// packed-refs as effectively read-mostly).
func (r *References) Remove(ref Reference) error {
	err := r.fs.Remove(ref.String())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("refs: remove %s: %w", ref, err)
	}
	return nil
}

// read resolves ref's own contents (not following symbolic links),
// checking the loose file first and falling back to packed-refs.
func (r *References) read(ref Reference) (HeadContents, bool, error) {
	if r.dir.Exists(ref.String()) {
		b, err := readFile(r.fs, ref.String())
		if err != nil {
			return HeadContents{}, false, err
		}
		hc, err := ParseHeadContents(b)
		if err != nil {
			return HeadContents{}, false, err
		}
		return hc, true, nil
	}

	lines, err := r.readPackedRefs()
	if err != nil {
		return HeadContents{}, false, err
	}
	if h, ok := Find(lines, ref); ok {
		return Direct(h), true, nil
	}

	return HeadContents{}, false, nil
}

// Read resolves ref to a concrete Hash, chasing symbolic links up to
// maxSymbolicDepth hops before giving up with ErrMalformedReference
// (spec.md §9).
func (r *References) Read(ref Reference) (plumbing.Hash, error) {
	cur := ref
	for depth := 0; depth < maxSymbolicDepth; depth++ {
		hc, ok, err := r.read(cur)
		if err != nil {
			return plumbing.Hash{}, err
		}
		if !ok {
			return plumbing.Hash{}, fmt.Errorf("%w: %s: not found", ErrMalformedReference, cur)
		}
		if !hc.IsSymbolic {
			return hc.Hash, nil
		}
		trace.Refs.Printf("chasing symbolic ref %s -> %s", cur, hc.Symbolic)
		cur = hc.Symbolic
	}
	return plumbing.Hash{}, fmt.Errorf("%w: symbolic chase exceeded depth %d starting at %s", ErrMalformedReference, maxSymbolicDepth, ref)
}

// ReadHead is Read applied to HEAD.
func (r *References) ReadHead() (plumbing.Hash, error) {
	return r.Read(HeadName)
}

// ReadHeadContents returns HEAD's own contents -- either a direct hash or a
// symbolic target -- without chasing a symbolic target further. This is
// spec.md §4.H's non-recursive read_head(t), as distinct from ReadHead's
// full chase down to a final Hash: ReadHead conflates the two by calling
// Read, which always resolves symbolic refs to completion.
func (r *References) ReadHeadContents() (HeadContents, bool, error) {
	return r.read(HeadName)
}

// Write stores hash as ref's direct contents via an atomic temp-file
// rename (spec.md §4.H).
func (r *References) Write(ref Reference, hash plumbing.Hash) error {
	return r.writeContents(ref, Direct(hash))
}

// WriteSymbolic stores ref as a symbolic pointer at target.
func (r *References) WriteSymbolic(ref Reference, target Reference) error {
	return r.writeContents(ref, Symbolic(target))
}

func (r *References) writeContents(ref Reference, hc HeadContents) error {
	if err := r.dir.WriteFileAtomic(ref.String(), hc.Encode()); err != nil {
		return fmt.Errorf("refs: write %s: %w", ref, err)
	}
	trace.Refs.Printf("wrote ref %s", ref)
	return nil
}

// WriteHead sets HEAD to hc, either a direct hash or a symbolic target,
// matching spec.md's write_head operation (exactly one of the two forms
// applies).
func (r *References) WriteHead(hc HeadContents) error {
	return r.writeContents(HeadName, hc)
}
