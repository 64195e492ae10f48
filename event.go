// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

// eventKind tags what a slot carries.
// The zero value is an empty slot.
type eventKind uint8

const (
	kindEmpty eventKind = iota
	kindData
	kindHalt
)

// event is the element type of both variants: either Data(payload) or Halt.
//
// Halt is recognised by kind, so every payload value, the zero value
// included, is valid data.
type event[T any] struct {
	kind eventKind
	data T
}

func dataEvent[T any](elem *T) event[T] {
	return event[T]{kind: kindData, data: *elem}
}

func haltEvent[T any]() event[T] {
	return event[T]{kind: kindHalt}
}

func (e *event[T]) isHalt() bool {
	return e.kind == kindHalt
}

// take moves the event out of the slot and clears it, so the ring does not
// retain the payload after delivery.
func (e *event[T]) take() event[T] {
	v := *e
	*e = event[T]{}
	return v
}
