// Package checkout implements spec.md §4.I: materializing a commit's tree
// into a working tree and reconciling it with the on-disk index. Grounded
// on go-git's Worktree.checkout machinery (worktree.go, worktree_status.go).
package checkout

import (
	"fmt"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/filemode"
	"github.com/gitodb/gitodb/storage"
)

// PathNode is one entry of a PathTree: either an internal node (Subtree
// non-nil) or a leaf carrying a blob.
type PathNode struct {
	Name string

	// Subtree is set for directory entries; its order is the on-disk
	// tree-entry order, preserved for stable, repeatable traversal.
	Subtree []*PathNode

	// Leaf fields, set when Subtree is nil.
	Mode filemode.FileMode
	Hash plumbing.Hash
	Blob *plumbing.Blob
}

// IsDir reports whether n is an internal node.
func (n *PathNode) IsDir() bool { return n.Subtree != nil }

// PathTree is the root of a materialized tree, as built by LoadFilesystem.
type PathTree struct {
	Root []*PathNode
}

// LoadFilesystem reads commitHash's commit, then its tree, recursively
// resolving every entry into a PathTree. It returns the total leaf (blob)
// count alongside the tree. A Dir entry that does not resolve to a Tree,
// or a non-Dir entry that does not resolve to a Blob, fails with
// plumbing.ErrSchemaViolation (spec.md §4.I).
func LoadFilesystem(store *storage.Store, commitHash plumbing.Hash) (int, *PathTree, error) {
	commitObj, err := store.ReadExn(plumbing.ShortHash(commitHash.String()))
	if err != nil {
		return 0, nil, fmt.Errorf("checkout: read commit %s: %w", commitHash, err)
	}

	commit, ok := commitObj.(*plumbing.Commit)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s is a %s, not a commit", plumbing.ErrSchemaViolation, commitHash, commitObj.Kind())
	}

	count := 0
	nodes, err := loadTree(store, commit.TreeHash, &count)
	if err != nil {
		return 0, nil, err
	}

	return count, &PathTree{Root: nodes}, nil
}

func loadTree(store *storage.Store, treeHash plumbing.Hash, count *int) ([]*PathNode, error) {
	treeObj, err := store.ReadExn(plumbing.ShortHash(treeHash.String()))
	if err != nil {
		return nil, fmt.Errorf("checkout: read tree %s: %w", treeHash, err)
	}

	tree, ok := treeObj.(*plumbing.Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", plumbing.ErrSchemaViolation, treeHash, treeObj.Kind())
	}

	nodes := make([]*PathNode, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.Mode.IsDir() {
			children, err := loadTree(store, e.Hash, count)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &PathNode{Name: e.Name, Subtree: children})
			continue
		}

		blobObj, err := store.ReadExn(plumbing.ShortHash(e.Hash.String()))
		if err != nil {
			return nil, fmt.Errorf("checkout: read blob %s: %w", e.Hash, err)
		}
		blob, ok := blobObj.(*plumbing.Blob)
		if !ok {
			return nil, fmt.Errorf("%w: %s is a %s, not a blob", plumbing.ErrSchemaViolation, e.Hash, blobObj.Kind())
		}

		*count++
		nodes = append(nodes, &PathNode{Name: e.Name, Mode: e.Mode, Hash: e.Hash, Blob: blob})
	}

	return nodes, nil
}

// BlobVisitor is invoked once per leaf by IterBlobs, in left-to-right,
// in-order traversal. i is 1-based; total is the blob count LoadFilesystem
// already computed.
type BlobVisitor func(i, total int, pathComponents []string, mode filemode.FileMode, hash plumbing.Hash, blob *plumbing.Blob) error

// IterBlobs walks t in on-disk order, invoking f for every leaf.
func IterBlobs(t *PathTree, total int, f BlobVisitor) error {
	i := 0
	return walkNodes(t.Root, nil, total, &i, f)
}

func walkNodes(nodes []*PathNode, prefix []string, total int, i *int, f BlobVisitor) error {
	for _, n := range nodes {
		path := append(append([]string{}, prefix...), n.Name)
		if n.IsDir() {
			if err := walkNodes(n.Subtree, path, total, i, f); err != nil {
				return err
			}
			continue
		}

		*i++
		if err := f(*i, total, path, n.Mode, n.Hash, n.Blob); err != nil {
			return err
		}
	}
	return nil
}
