package machine

const pageSize = 0x2000 // 8 KiB

// imageSet is an ordered sequence of up to 256 fixed-size 8 KiB pages,
// backing either the ROM or the RAM half of the address space. Both sets
// pre-allocate the full 256-page array at construction (matching the
// original implementation's worst-case 4 MiB footprint) rather than
// growing dynamically, since pages are never freed individually.
type imageSet struct {
	pages [256][pageSize]byte
	count int
}

func (s *imageSet) readByte(index int, offset uint16) byte {
	return s.pages[index%s.count][offset]
}

func (s *imageSet) writeByte(index int, offset uint16, value byte) {
	s.pages[index%s.count][offset] = value
}

func (s *imageSet) zero() {
	for i := range s.pages {
		s.pages[i] = [pageSize]byte{}
	}
}

// append copies data into consecutive pages starting at s.count,
// zero-padding the final page, up to the 256-page ceiling. Mirrors the
// original addRomData loop.
func (s *imageSet) append(data []byte) {
	for len(data) > 0 && s.count < 256 {
		n := copy(s.pages[s.count][:], data)
		if n < pageSize {
			for i := n; i < pageSize; i++ {
				s.pages[s.count][i] = 0
			}
		}
		data = data[n:]
		s.count++
	}
}
