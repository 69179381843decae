package kast

var (
	_ Context = (*GlobalContext)(nil)
	_ Context = (*LocalContext)(nil)
	_ Context = (*FunctionDeclarationContext)(nil)
)
