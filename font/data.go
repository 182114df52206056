package font

// tinyData holds the Tiny face glyphs for 0x20..0x7e, six rows per glyph.
// Each row is a 3-bit value, bit 2 is the leftmost pixel. The sixth row is
// the descender row, blank for most glyphs.
var tinyData = []uint8{
	0, 0, 0, 0, 0, 0, // 0x20 ' '
	2, 2, 2, 0, 2, 0, // 0x21 '!'
	5, 5, 0, 0, 0, 0, // 0x22 '"'
	5, 7, 5, 7, 5, 0, // 0x23 '#'
	3, 6, 3, 6, 2, 0, // 0x24 '$'
	5, 1, 2, 4, 5, 0, // 0x25 '%'
	2, 5, 2, 5, 3, 0, // 0x26 '&'
	2, 2, 0, 0, 0, 0, // 0x27 '\''
	1, 2, 2, 2, 1, 0, // 0x28 '('
	4, 2, 2, 2, 4, 0, // 0x29 ')'
	5, 2, 5, 0, 0, 0, // 0x2a '*'
	0, 2, 7, 2, 0, 0, // 0x2b '+'
	0, 0, 0, 0, 2, 4, // 0x2c ','
	0, 0, 7, 0, 0, 0, // 0x2d '-'
	0, 0, 0, 0, 2, 0, // 0x2e '.'
	1, 1, 2, 4, 4, 0, // 0x2f '/'
	2, 5, 5, 5, 2, 0, // 0x30 '0'
	2, 6, 2, 2, 7, 0, // 0x31 '1'
	6, 1, 2, 4, 7, 0, // 0x32 '2'
	6, 1, 2, 1, 6, 0, // 0x33 '3'
	5, 5, 7, 1, 1, 0, // 0x34 '4'
	7, 4, 6, 1, 6, 0, // 0x35 '5'
	3, 4, 7, 5, 7, 0, // 0x36 '6'
	7, 1, 2, 2, 2, 0, // 0x37 '7'
	7, 5, 7, 5, 7, 0, // 0x38 '8'
	7, 5, 7, 1, 6, 0, // 0x39 '9'
	0, 2, 0, 2, 0, 0, // 0x3a ':'
	0, 2, 0, 2, 4, 0, // 0x3b ';'
	1, 2, 4, 2, 1, 0, // 0x3c '<'
	0, 7, 0, 7, 0, 0, // 0x3d '='
	4, 2, 1, 2, 4, 0, // 0x3e '>'
	6, 1, 2, 0, 2, 0, // 0x3f '?'
	2, 5, 7, 4, 3, 0, // 0x40 '@'
	2, 5, 7, 5, 5, 0, // 0x41 'A'
	6, 5, 6, 5, 6, 0, // 0x42 'B'
	3, 4, 4, 4, 3, 0, // 0x43 'C'
	6, 5, 5, 5, 6, 0, // 0x44 'D'
	7, 4, 6, 4, 7, 0, // 0x45 'E'
	7, 4, 6, 4, 4, 0, // 0x46 'F'
	3, 4, 5, 5, 3, 0, // 0x47 'G'
	5, 5, 7, 5, 5, 0, // 0x48 'H'
	7, 2, 2, 2, 7, 0, // 0x49 'I'
	1, 1, 1, 5, 2, 0, // 0x4a 'J'
	5, 5, 6, 5, 5, 0, // 0x4b 'K'
	4, 4, 4, 4, 7, 0, // 0x4c 'L'
	5, 7, 5, 5, 5, 0, // 0x4d 'M'
	6, 5, 5, 5, 5, 0, // 0x4e 'N'
	2, 5, 5, 5, 2, 0, // 0x4f 'O'
	6, 5, 6, 4, 4, 0, // 0x50 'P'
	2, 5, 5, 5, 3, 1, // 0x51 'Q'
	6, 5, 6, 5, 5, 0, // 0x52 'R'
	3, 4, 2, 1, 6, 0, // 0x53 'S'
	7, 2, 2, 2, 2, 0, // 0x54 'T'
	5, 5, 5, 5, 7, 0, // 0x55 'U'
	5, 5, 5, 5, 2, 0, // 0x56 'V'
	5, 5, 5, 7, 5, 0, // 0x57 'W'
	5, 5, 2, 5, 5, 0, // 0x58 'X'
	5, 5, 2, 2, 2, 0, // 0x59 'Y'
	7, 1, 2, 4, 7, 0, // 0x5a 'Z'
	3, 2, 2, 2, 3, 0, // 0x5b '['
	4, 4, 2, 1, 1, 0, // 0x5c '\\'
	6, 2, 2, 2, 6, 0, // 0x5d ']'
	2, 5, 0, 0, 0, 0, // 0x5e '^'
	0, 0, 0, 0, 7, 0, // 0x5f '_'
	4, 2, 0, 0, 0, 0, // 0x60 '`'
	0, 3, 5, 5, 3, 0, // 0x61 'a'
	4, 6, 5, 5, 6, 0, // 0x62 'b'
	0, 3, 4, 4, 3, 0, // 0x63 'c'
	1, 3, 5, 5, 3, 0, // 0x64 'd'
	0, 2, 5, 6, 3, 0, // 0x65 'e'
	1, 2, 7, 2, 2, 0, // 0x66 'f'
	0, 3, 5, 3, 1, 6, // 0x67 'g'
	4, 6, 5, 5, 5, 0, // 0x68 'h'
	2, 0, 2, 2, 2, 0, // 0x69 'i'
	1, 0, 1, 1, 5, 2, // 0x6a 'j'
	4, 5, 6, 5, 5, 0, // 0x6b 'k'
	2, 2, 2, 2, 3, 0, // 0x6c 'l'
	0, 7, 7, 5, 5, 0, // 0x6d 'm'
	0, 6, 5, 5, 5, 0, // 0x6e 'n'
	0, 2, 5, 5, 2, 0, // 0x6f 'o'
	0, 6, 5, 6, 4, 4, // 0x70 'p'
	0, 3, 5, 3, 1, 1, // 0x71 'q'
	0, 3, 4, 4, 4, 0, // 0x72 'r'
	0, 3, 6, 1, 6, 0, // 0x73 's'
	2, 7, 2, 2, 1, 0, // 0x74 't'
	0, 5, 5, 5, 3, 0, // 0x75 'u'
	0, 5, 5, 5, 2, 0, // 0x76 'v'
	0, 5, 5, 7, 5, 0, // 0x77 'w'
	0, 5, 2, 2, 5, 0, // 0x78 'x'
	0, 5, 5, 3, 1, 6, // 0x79 'y'
	0, 7, 1, 2, 7, 0, // 0x7a 'z'
	3, 2, 6, 2, 3, 0, // 0x7b '{'
	2, 2, 2, 2, 2, 0, // 0x7c '|'
	6, 2, 3, 2, 6, 0, // 0x7d '}'
	0, 1, 7, 4, 0, 0, // 0x7e '~'
}
