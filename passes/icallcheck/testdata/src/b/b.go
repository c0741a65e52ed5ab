package b

type Handler interface{ Serve() }

func direct() {}

func run(h Handler, fn func(), ok bool) {
	fn() // want "uncovered indirect call: t0 = fn"
	direct()
	h.Serve()
	if ok {
		fn()
	}
}
