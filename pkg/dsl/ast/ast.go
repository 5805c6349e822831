// Package ast declares the syntax tree of the story DSL.
//
// Every node is a concrete struct implementing either Expr, Stmt or Item.
// The tree carries no behaviour: evaluation lives in the interpreter.
package ast

// Pos is a 1-based line/column location in the source.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Node is implemented by every syntax tree element.
type Node interface {
	Position() Pos
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Item is a declaration allowed inside a story or node block.
type Item interface {
	Node
	itemNode()
}

// Script is the root of a parsed source file.
type Script struct {
	Name  string
	Items []Item
}

// ---------------------------------------------------------------------------
// Expressions

// NumberLit is a numeric literal. All numbers are float64.
type NumberLit struct {
	Pos   Pos
	Value float64
}

// StringLit is a string literal without interpolation.
type StringLit struct {
	Pos   Pos
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	Pos   Pos
	Value bool
}

// NilLit is the nil literal.
type NilLit struct {
	Pos Pos
}

// Ident references a variable.
type Ident struct {
	Pos  Pos
	Name string
}

// Template is a string with {{ expr }} holes. Parts alternate between
// literal text (StringLit) and embedded expressions.
type Template struct {
	Pos   Pos
	Parts []Expr
}

// Unary is a prefix operator application.
type Unary struct {
	Pos Pos
	Op  string
	X   Expr
}

// Binary is an infix operator application.
type Binary struct {
	Pos   Pos
	Op    string
	Left  Expr
	Right Expr
}

// Call invokes a builtin or registered function.
type Call struct {
	Pos  Pos
	Name string
	Args []Expr
}

func (e *NumberLit) Position() Pos { return e.Pos }
func (e *StringLit) Position() Pos { return e.Pos }
func (e *BoolLit) Position() Pos   { return e.Pos }
func (e *NilLit) Position() Pos    { return e.Pos }
func (e *Ident) Position() Pos     { return e.Pos }
func (e *Template) Position() Pos  { return e.Pos }
func (e *Unary) Position() Pos     { return e.Pos }
func (e *Binary) Position() Pos    { return e.Pos }
func (e *Call) Position() Pos      { return e.Pos }

func (*NumberLit) exprNode() {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*NilLit) exprNode()    {}
func (*Ident) exprNode()     {}
func (*Template) exprNode()  {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Call) exprNode()      {}

// ---------------------------------------------------------------------------
// Statements

// Block is a braced statement list.
type Block struct {
	Pos   Pos
	Stmts []Stmt
}

// Assign sets a variable.
type Assign struct {
	Pos   Pos
	Name  string
	Value Expr
}

// If is a conditional with an optional else branch (a Block or another If).
type If struct {
	Pos  Pos
	Cond Expr
	Then *Block
	Else Stmt
}

// Goto selects the next node. Only valid inside option actions.
type Goto struct {
	Pos    Pos
	Target Expr
}

// Message forwards a warning or an error to the engine. Kind is "warn" or "error".
type Message struct {
	Pos  Pos
	Kind string
	Text Expr
}

// Print writes a line to the host log.
type Print struct {
	Pos  Pos
	Text Expr
}

// Fail aborts the evaluation on purpose.
type Fail struct {
	Pos    Pos
	Reason Expr
}

// Require asserts that the engine provides a capability ("base", "resource", "common").
type Require struct {
	Pos        Pos
	Capability string
}

// Ask prompts the reader for text and stores it in Var.
type Ask struct {
	Pos      Pos
	Question Expr
	Var      string
}

// Choose opens a choice dialog on the engine.
type Choose struct {
	Pos         Pos
	Var         string
	Text        Expr
	Title       Expr
	Icon        Expr
	Cancellable bool
	Choices     []*Choice
	Cancel      *Choice
}

// Choice is one button of a Choose statement. Text is nil for the cancel branch.
type Choice struct {
	Pos       Pos
	Text      Expr
	Color     Expr
	WhiteText bool
	Yields    Expr
	Action    *Block
}

// Background sets the story background to a named resource.
type Background struct {
	Pos      Pos
	Resource Expr
}

// Font sets the story font.
type Font struct {
	Pos  Pos
	Name Expr
}

// LoadResources asks the engine to load the resources folder.
type LoadResources struct {
	Pos Pos
}

// Close closes the story.
type Close struct {
	Pos Pos
}

// Nsfw shows the standard explicit-content warning.
type Nsfw struct {
	Pos     Pos
	Content []Expr
}

func (s *Block) Position() Pos         { return s.Pos }
func (s *Assign) Position() Pos        { return s.Pos }
func (s *If) Position() Pos            { return s.Pos }
func (s *Goto) Position() Pos          { return s.Pos }
func (s *Message) Position() Pos       { return s.Pos }
func (s *Print) Position() Pos         { return s.Pos }
func (s *Fail) Position() Pos          { return s.Pos }
func (s *Require) Position() Pos       { return s.Pos }
func (s *Ask) Position() Pos           { return s.Pos }
func (s *Choose) Position() Pos        { return s.Pos }
func (s *Choice) Position() Pos        { return s.Pos }
func (s *Background) Position() Pos    { return s.Pos }
func (s *Font) Position() Pos          { return s.Pos }
func (s *LoadResources) Position() Pos { return s.Pos }
func (s *Close) Position() Pos         { return s.Pos }
func (s *Nsfw) Position() Pos          { return s.Pos }

func (*Block) stmtNode()         {}
func (*Assign) stmtNode()        {}
func (*If) stmtNode()            {}
func (*Goto) stmtNode()          {}
func (*Message) stmtNode()       {}
func (*Print) stmtNode()         {}
func (*Fail) stmtNode()          {}
func (*Require) stmtNode()       {}
func (*Ask) stmtNode()           {}
func (*Choose) stmtNode()        {}
func (*Background) stmtNode()    {}
func (*Font) stmtNode()          {}
func (*LoadResources) stmtNode() {}
func (*Close) stmtNode()         {}
func (*Nsfw) stmtNode()          {}

// ---------------------------------------------------------------------------
// Declarations

// StoryDecl declares a story.
type StoryDecl struct {
	Pos   Pos
	ID    Expr
	Items []Item
}

// ImportDecl imports a plain-text story and customizes it with Items.
// Path is either a source path or, when it spans several lines, the story
// text itself. ID overrides the imported story ID.
type ImportDecl struct {
	Pos   Pos
	Path  Expr
	ID    Expr
	Items []Item
}

// Property sets title, author or start.
type Property struct {
	Pos   Pos
	Name  string
	Value Expr
}

// VarDecl declares a story variable (Shared == false) or an environment
// property shared by every story of the host (Shared == true).
type VarDecl struct {
	Pos    Pos
	Name   string
	Value  Expr
	Shared bool
}

// NodeDecl declares a node.
type NodeDecl struct {
	Pos   Pos
	ID    Expr
	Body  Expr
	Items []Item
}

// BodyDecl replaces the body of the enclosing node.
type BodyDecl struct {
	Pos  Pos
	Body Expr
}

// BindDecl replaces Key with Value in the rendered body.
type BindDecl struct {
	Pos   Pos
	Key   Expr
	Value Expr
}

// OnReach runs Block every time the node is entered.
type OnReach struct {
	Pos   Pos
	Block *Block
}

// OptionDecl declares an option of the enclosing node.
type OptionDecl struct {
	Pos       Pos
	Text      Expr
	Target    Expr
	Available Expr
	Visible   Expr
	Action    *Block
}

// StmtItem wraps a statement executed while the declaration is evaluated.
type StmtItem struct {
	Stmt Stmt
}

func (d *StoryDecl) Position() Pos  { return d.Pos }
func (d *ImportDecl) Position() Pos { return d.Pos }
func (d *Property) Position() Pos   { return d.Pos }
func (d *VarDecl) Position() Pos    { return d.Pos }
func (d *NodeDecl) Position() Pos   { return d.Pos }
func (d *BodyDecl) Position() Pos   { return d.Pos }
func (d *BindDecl) Position() Pos   { return d.Pos }
func (d *OnReach) Position() Pos    { return d.Pos }
func (d *OptionDecl) Position() Pos { return d.Pos }
func (d *StmtItem) Position() Pos   { return d.Stmt.Position() }

func (*StoryDecl) itemNode()  {}
func (*ImportDecl) itemNode() {}
func (*Property) itemNode()   {}
func (*VarDecl) itemNode()    {}
func (*NodeDecl) itemNode()   {}
func (*BodyDecl) itemNode()   {}
func (*BindDecl) itemNode()   {}
func (*OnReach) itemNode()    {}
func (*OptionDecl) itemNode() {}
func (*StmtItem) itemNode()   {}
