/*
Package avium implements a single-inheritance object runtime with virtual
dispatch, a collector-backed allocator, non-local throws, OS threads, and
cooperative tasks.

Every object has a type, described by a Type value created once with
Declare. A type names its base, the Go struct holding its instance data, and
a vtable mapping slots to callbacks. The data struct of a derived type embeds
its base's data struct as its first field, so an object can always be viewed
as an instance of any of its bases:

	var ShapeType = avium.Declare(avium.TypeSpec{
		Name: "Shape",
		Data: Shape{},
	})

	var PointType = avium.Declare(avium.TypeSpec{
		Name: "Point",
		Base: ShapeType,
		Data: Point{},
		VTable: avium.VTable{
			SlotDistance: avium.Fn(pointDistance),
		},
	})

Dispatch looks a slot up on the object's type, then its base, and so on to
the root type Object. The root implements only toString, so every object can
be printed. Equals and clone fall back to byte-wise comparison and shallow
copy. Any other slot that resolves nowhere is a fatal missing capability;
use Responds to check first.

Runtime state lives in a VM created with NewVM. Threads and tasks each get
their own view of the VM, which shares everything except the stack of throw
contexts. Throw transfers control to the innermost context, carrying the
thrown object and the location of the throw:

	ex, where := vm.Try(func() {
		vm.Raise("nothing to see at %d", 3)
	})

Catch handles only values of a given type and throws anything else on to the
next outer context. Threads and tasks run their entry points in a top-level
context that logs whatever escapes.

Conditions the runtime cannot continue from, such as a corrupted context
stack or a missing capability, panic with a *FatalError. These are never
recovered.
*/
package avium
