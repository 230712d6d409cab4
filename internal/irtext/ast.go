package irtext

import "github.com/alecthomas/participle/v2/lexer"

// Program is the grammar root: zero or more struct declarations followed
// by zero or more method declarations.
type Program struct {
	Pos     lexer.Position
	Structs []*StructDecl `@@*`
	Methods []*MethodDecl `@@*`
}

type StructDecl struct {
	Pos    lexer.Position
	Name   string       `"struct" @Ident "{"`
	Fields []*FieldDecl `@@* "}"`
}

type FieldDecl struct {
	Pos  lexer.Position
	Name string   `@Ident ":"`
	Type *TypeRef `@@ ","`
}

// TypeRef deliberately omits integer bit-width syntax (every fixture int
// is 32 bits): the grammar exists only to feed the weaver's own tests and
// tooling, which never inspects bit width.
type TypeRef struct {
	Pos    lexer.Position
	IntT   string   `  @"int"`
	BoolT  string   `| @"bool"`
	Ref    *TypeRef `| "*" @@`
	Struct string   `| @Ident`
}

type MethodDecl struct {
	Pos    lexer.Position
	Main   string       `"method" [ @"main" ]`
	Name   string       `@Ident "("`
	Params []*ParamDecl `[ @@ ( "," @@ )* ] ")"`
	Result *TypeRef     `[ "->" @@ ]`
	Pre    *Expr        `[ "pre" ":" @@ ]`
	Post   *Expr        `[ "post" ":" @@ ]`
	Body   []*OpNode    `"{" @@* "}"`
}

type ParamDecl struct {
	Pos  lexer.Position
	Name string   `@Ident ":"`
	Type *TypeRef `@@`
}

// OpNode is one method-body statement. Alternatives are distinguished by
// their leading keyword, so ordering among them does not matter for
// correctness (participle tries each in turn and backtracks on failure).
type OpNode struct {
	Pos          lexer.Position
	If           *IfOp           `  @@`
	While        *WhileOp        `| @@`
	Invoke       *InvokeOp       `| @@`
	AllocValue   *AllocValueOp   `| @@`
	AllocStruct  *AllocStructOp  `| @@`
	Assign       *AssignOp       `| @@`
	AssignMember *AssignMemberOp `| @@`
	Assert       *AssertOp       `| @@`
	Fold         *FoldOp         `| @@`
	Unfold       *UnfoldOp       `| @@`
	Error        *ErrorOpNode    `| @@`
	Return       *ReturnOp       `| @@`
}

type IfOp struct {
	Pos  lexer.Position
	Cond *Expr     `"if" "(" @@ ")" "{"`
	Then []*OpNode `@@* "}"`
	Else []*OpNode `[ "else" "{" @@* "}" ]`
}

type WhileOp struct {
	Pos       lexer.Position
	Cond      *Expr     `"while" "(" @@ ")"`
	Invariant *Expr     `[ "invariant" ":" @@ ]`
	Body      []*OpNode `"{" @@* "}"`
}

type InvokeOp struct {
	Pos     lexer.Position
	Results []string `[ "let" @Ident ( "," @Ident )* "=" ]`
	Method  string    `"invoke" @Ident "("`
	Args    []*Expr   `[ @@ ( "," @@ )* ] ")" ";"`
}

type AllocValueOp struct {
	Pos    lexer.Position
	Result string   `"let" @Ident "=" "allocvalue"`
	Type   *TypeRef `@@ ";"`
}

type AllocStructOp struct {
	Pos    lexer.Position
	Result string `"let" @Ident "=" "allocstruct"`
	Struct string `@Ident ";"`
}

type AssignOp struct {
	Pos    lexer.Position
	Result string `"assign" @Ident "="`
	Value  *Expr  `@@ ";"`
}

type AssignMemberOp struct {
	Pos    lexer.Position
	Root   *Expr  `"assignmember" @@`
	Struct string `"." @Ident`
	Field  string `"$" @Ident`
	Value  *Expr  `"=" @@ ";"`
}

type AssertOp struct {
	Pos  lexer.Position
	Kind string `"assert" [ @("imperative"|"spec") ]`
	Expr *Expr  `@@ ";"`
}

type FoldOp struct {
	Pos  lexer.Position
	Name string  `"fold" @Ident "("`
	Args []*Expr `[ @@ ( "," @@ )* ] ")" ";"`
}

type UnfoldOp struct {
	Pos  lexer.Position
	Name string  `"unfold" @Ident "("`
	Args []*Expr `[ @@ ( "," @@ )* ] ")" ";"`
}

type ErrorOpNode struct {
	Pos lexer.Position
	Kw  string `@"error" ";"`
}

type ReturnOp struct {
	Pos   lexer.Position
	Value *Expr `"return" [ @@ ] ";"`
}

// Expr is a specification/value expression. Binary and unary operators and
// every permission form are written prefix, e.g. (+ a b), (acc p, S, f),
// rather than with infix precedence — see the package doc.
type Expr struct {
	Pos    lexer.Position
	Int    *int          `  @Integer`
	Bool   string        `| @("true"|"false")`
	Null   string        `| @"null"`
	Result string        `| @"result"`
	RVar   *ResultVarRef `| @@`
	Op     *OpExpr       `| "(" @@ ")"`
	Var    string        `| @Ident`
}

type ResultVarRef struct {
	Pos  lexer.Position
	Name string `"resultvar" @Ident`
}

type OpExpr struct {
	Pos       lexer.Position
	Binary    *BinaryOp    `  @@`
	Unary     *UnaryOp     `| @@`
	Field     *FieldOp     `| @@`
	Deref     *DerefOp     `| @@`
	Cond      *CondOp      `| @@`
	Acc       *AccOp       `| @@`
	Pred      *PredOp      `| @@`
	Imprecise *ImpreciseOp `| @@`
}

type BinaryOp struct {
	Pos   lexer.Position
	Op    string `@("+"|"-"|"*"|"/"|"%"|"&&"|"||"|"=="|"!="|"<="|">="|"<"|">")`
	Left  *Expr  `@@`
	Right *Expr  `@@`
}

type UnaryOp struct {
	Pos     lexer.Position
	Op      string `@"!"`
	Operand *Expr  `@@`
}

type FieldOp struct {
	Pos    lexer.Position
	Root   *Expr  `"field" @@`
	Struct string `"," @Ident`
	Field  string `"," @Ident`
}

type DerefOp struct {
	Pos     lexer.Position
	Operand *Expr `"deref" @@`
}

type CondOp struct {
	Pos  lexer.Position
	C    *Expr `"cond" @@`
	T    *Expr `@@`
	F    *Expr `@@`
}

type AccOp struct {
	Pos    lexer.Position
	Root   *Expr  `"acc" @@`
	Struct string `"," @Ident`
	Field  string `"," @Ident`
}

type PredOp struct {
	Pos  lexer.Position
	Name string  `"pred" @Ident`
	Args []*Expr `@@*`
}

type ImpreciseOp struct {
	Pos   lexer.Position
	Inner *Expr `"imprecise" [ @@ ]`
}
