package h264

// Rec. ITU-T H.264 (08/2021) p.43
type NAL struct {
	ForbiddenZeroBit bool
	RefIDC           byte
	UnitType         NALUnitType
	RBSPByte         []byte
	HeaderBytes      []byte
	SEI
}

// SEI holds the first sei_message of a SEI unit.
type SEI struct {
	PayloadType int
	PayloadSize int
	// PayloadOffset is where the payload starts in RBSPByte, after the ff-extended type and size.
	PayloadOffset int
}

// ParseNAL parses a NAL unit given without its start code prefix.
func ParseNAL(data []byte) (NAL, error) {
	if len(data) == 0 {
		return NAL{}, ErrEmptyNAL
	}

	index := 0
	n := NAL{}
	n.ForbiddenZeroBit = data[index]>>7&0x01 != 0
	n.RefIDC = (data[index] >> 5) & 0x03
	n.UnitType = NALUnitTypeFromHeader(data[index])
	nalUnitHeaderBytes := 1
	n.HeaderBytes = data[:nalUnitHeaderBytes]

	index += nalUnitHeaderBytes

	n.RBSPByte = make([]byte, 0, len(data)-index)
	for i := index; i < len(data); i++ {
		if (i+2) < len(data) && (data[i] == 0x00 && data[i+1] == 0x00 && data[i+2] == 0x03) {
			n.RBSPByte = append(n.RBSPByte, data[i], data[i+1])
			// skip emulation_prevention_three_byte
			i += 2
		} else {
			n.RBSPByte = append(n.RBSPByte, data[i])
		}
	}

	if err := n.ParseRBSP(); err != nil {
		return n, err
	}
	return n, nil
}

func (n *NAL) ParseRBSP() error {
	switch n.UnitType {
	case SupplementalEnhancementInformation:
		return n.parseSEI()
	}

	return nil
}

func (n *NAL) parseSEI() error {
	n.SEI = SEI{}
	byteOffset := 0

	var err error
	if n.PayloadType, byteOffset, err = readSEIValue(n.RBSPByte, byteOffset); err != nil {
		return err
	}
	if n.PayloadSize, n.PayloadOffset, err = readSEIValue(n.RBSPByte, byteOffset); err != nil {
		return err
	}
	return nil
}

// readSEIValue reads a ff-byte-extended value (payloadType or payloadSize).
func readSEIValue(rbsp []byte, byteOffset int) (int, int, error) {
	value := 0
	for {
		if byteOffset >= len(rbsp) {
			return 0, byteOffset, ErrTruncatedSEI
		}
		nextBits := rbsp[byteOffset]
		byteOffset++
		value += int(nextBits)
		if nextBits != 0xff {
			return value, byteOffset, nil
		}
	}
}
