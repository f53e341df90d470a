package xvc

import (
	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/yuv"
)

// dpb holds the reconstructed pictures available for reference, oldest
// first. Encoder and decoder drive it with the same calls so both derive
// identical reference lists.
type dpb struct {
	pics     []cu.RefPicture
	capacity int
}

func newDpb(capacity int) *dpb {
	return &dpb{capacity: capacity}
}

func (d *dpb) len() int { return len(d.pics) }

// startPicture clears the buffer at intra pictures, which start a new
// prediction chain.
func (d *dpb) startPicture(picType quant.PicType) {
	if picType == quant.PicTypeIntra {
		d.pics = d.pics[:0]
	}
}

// add stores a reconstruction, evicting the oldest picture when full.
func (d *dpb) add(poc int, pic *yuv.Picture) {
	if d.capacity == 0 {
		return
	}
	if len(d.pics) == d.capacity {
		copy(d.pics, d.pics[1:])
		d.pics = d.pics[:len(d.pics)-1]
	}
	d.pics = append(d.pics, cu.RefPicture{Poc: poc, Pic: pic})
}

// refLists returns the n[l] most recent pictures of each list, most recent
// first. Both lists index the same pictures.
func (d *dpb) refLists(n [cu.NumRefLists]int) ([cu.NumRefLists][]cu.RefPicture, error) {
	var lists [cu.NumRefLists][]cu.RefPicture
	for l, count := range n {
		if count > len(d.pics) {
			return lists, errors.Errorf("xvc: %d references requested in list %d, %d available", count, l, len(d.pics))
		}
		list := make([]cu.RefPicture, count)
		for i := range list {
			list[i] = d.pics[len(d.pics)-1-i]
		}
		lists[l] = list
	}
	return lists, nil
}
