package emitter

// DwarfEntry is a structural stand-in for a DWARF debugging-information
// entry: the tag/attribute/children shape is represented faithfully, but
// byte-exact DWARF section encoding is explicitly out of scope (the
// specification's Non-goals carry this forward: "bit-exact DWARF is out
// of scope; a structurally faithful entry tree is in scope").
type DwarfEntry struct {
	Tag        string
	Attributes map[string]string
	Children   []*DwarfEntry
}

// NewDwarfEntry allocates an entry with an empty attribute map.
func NewDwarfEntry(tag string) *DwarfEntry {
	return &DwarfEntry{Tag: tag, Attributes: make(map[string]string)}
}

// AddChild appends a nested entry (e.g. a DW_TAG_formal_parameter under a
// DW_TAG_subprogram) and returns it for chaining.
func (e *DwarfEntry) AddChild(tag string) *DwarfEntry {
	child := NewDwarfEntry(tag)
	e.Children = append(e.Children, child)
	return child
}

// CompileUnit builds the root entry for one translation unit's debug
// information tree.
func CompileUnit(name, producer string) *DwarfEntry {
	cu := NewDwarfEntry("DW_TAG_compile_unit")
	cu.Attributes["DW_AT_name"] = name
	cu.Attributes["DW_AT_producer"] = producer
	return cu
}

// Subprogram adds a function entry to a compile unit, returning it so the
// caller can attach DW_TAG_formal_parameter children.
func (e *DwarfEntry) Subprogram(name string, lowPC, highPC uint64) *DwarfEntry {
	sub := e.AddChild("DW_TAG_subprogram")
	sub.Attributes["DW_AT_name"] = name
	sub.Attributes["DW_AT_low_pc"] = formatAddr(lowPC)
	sub.Attributes["DW_AT_high_pc"] = formatAddr(highPC)
	return sub
}

func formatAddr(addr uint64) string {
	const hexDigits = "0123456789abcdef"
	if addr == 0 {
		return "0x0"
	}
	var buf [18]byte
	i := len(buf)
	for addr > 0 {
		i--
		buf[i] = hexDigits[addr&0xf]
		addr >>= 4
	}
	i--
	buf[i] = 'x'
	i--
	buf[i] = '0'
	return string(buf[i:])
}
