package simulation

// IDSequence mints the transactional identifiers of one run. It is owned by
// the engine and threaded through every helper that creates a sale, a line
// item or a return.
type IDSequence struct {
	sale     int64
	saleItem int64
	ret      int64
}

func NewIDSequence() *IDSequence {
	return &IDSequence{}
}

func (s *IDSequence) NextSale() int64 {
	s.sale++
	return s.sale
}

func (s *IDSequence) NextSaleItem() int64 {
	s.saleItem++
	return s.saleItem
}

func (s *IDSequence) NextReturn() int64 {
	s.ret++
	return s.ret
}
