// Package reactive implements versioned observable state.
//
// A [Cell] holds a value together with a [Listeners] registry. Readers take
// shared borrows with [Cell.Borrow]; writers take the single exclusive
// borrow with [Cell.BorrowMut]. Releasing an exclusive borrow always bumps
// the version and wakes every registered waker, whether or not the value
// changed. Readers remember the [Version] they last saw and compare it, or
// register a waker and wait for [UntilChange].
//
// Borrows are checked at runtime. Taking an exclusive borrow while any other
// borrow is outstanding is a contract violation and panics.
//
//	count := reactive.NewCell(5)
//
//	m := count.BorrowMut()
//	*m.Value() = 6
//	m.Release() // version bumped, wakers fired
//
// Derived observables ([Map], [Zip], [Constant]) keep the contract that
// their version moves at least every time an upstream version moves.
package reactive
