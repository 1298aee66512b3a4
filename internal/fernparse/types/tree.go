package types

import (
	"fmt"
	"strings"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
)

const (
	treeLevelEmpty               = "        "
	treeLevelOngoing             = "  |     "
	treeLevelPrefix              = "  |%s: "
	treeLevelPrefixLast          = `  \%s: `
	treeLevelPrefixNamePadChar   = '-'
	treeLevelPrefixNamePadAmount = 3
)

func makeTreeLevelPrefix(msg string) string {
	for len([]rune(msg)) < treeLevelPrefixNamePadAmount {
		msg = string(treeLevelPrefixNamePadChar) + msg
	}
	return fmt.Sprintf(treeLevelPrefix, msg)
}

func makeTreeLevelPrefixLast(msg string) string {
	for len([]rune(msg)) < treeLevelPrefixNamePadAmount {
		msg = string(treeLevelPrefixNamePadChar) + msg
	}
	return fmt.Sprintf(treeLevelPrefixLast, msg)
}

// ParseTree is an ordered tree produced by the operator-precedence parser
// (spec §3 "Parse tree"). Leaves are terminals; internal nodes are
// non-terminals created by reductions.
type ParseTree struct {
	// Terminal is whether this node is for a terminal symbol.
	Terminal bool

	// TokenID is the symbol at this node, drawn from the shared ids
	// namespace.
	TokenID ids.ID

	// Name is the printable name of TokenID, stashed here so trees can be
	// rendered without carrying a reference to the namespace around.
	Name string

	// Payload holds the lexeme data for this node when Terminal is true and
	// the occurrence carried a payload (spec §3 "Data payload").
	Payload *Payload

	// Children is all children of the parse tree, left to right.
	Children []*ParseTree
}

// String returns a prettified representation of the entire parse tree
// suitable for line-by-line comparisons of tree structure. Two parse trees
// are considered semantically identical if they produce identical String()
// output.
func (pt ParseTree) String() string {
	return pt.leveledStr("", "")
}

// Copy returns a duplicate, deeply-copied parse tree.
func (pt ParseTree) Copy() ParseTree {
	newPt := ParseTree{
		Terminal: pt.Terminal,
		TokenID:  pt.TokenID,
		Name:     pt.Name,
		Payload:  pt.Payload,
		Children: make([]*ParseTree, len(pt.Children)),
	}

	for i := range pt.Children {
		if pt.Children[i] != nil {
			newChild := pt.Children[i].Copy()
			newPt.Children[i] = &newChild
		}
	}

	return newPt
}

func (pt ParseTree) leveledStr(firstPrefix, contPrefix string) string {
	var sb strings.Builder

	sb.WriteString(firstPrefix)
	if pt.Terminal {
		lexeme := pt.Name
		if pt.Payload != nil {
			lexeme = pt.Payload.Text
		}
		sb.WriteString(fmt.Sprintf("(TERM %s %q)", pt.Name, lexeme))
	} else {
		sb.WriteString(fmt.Sprintf("( %s )", pt.Name))
	}

	for i := range pt.Children {
		sb.WriteRune('\n')
		var leveledFirstPrefix string
		var leveledContPrefix string
		if i+1 < len(pt.Children) {
			leveledFirstPrefix = contPrefix + makeTreeLevelPrefix("")
			leveledContPrefix = contPrefix + treeLevelOngoing
		} else {
			leveledFirstPrefix = contPrefix + makeTreeLevelPrefixLast("")
			leveledContPrefix = contPrefix + treeLevelEmpty
		}
		itemOut := pt.Children[i].leveledStr(leveledFirstPrefix, leveledContPrefix)
		sb.WriteString(itemOut)
	}

	return sb.String()
}

// Equal returns whether pt has the exact same structure as o.
func (pt ParseTree) Equal(o any) bool {
	other, ok := o.(ParseTree)
	if !ok {
		otherPtr, ok := o.(*ParseTree)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if pt.Terminal != other.Terminal {
		return false
	} else if pt.TokenID != other.TokenID {
		return false
	} else if len(pt.Children) != len(other.Children) {
		return false
	}

	for i := range pt.Children {
		if !pt.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}
