/*
Package hwbind binds elaborated Verilog modules to a target that executes them
in hardware, typically an FPGA fabric reachable through memory mapped I/O.

The workflow is the following, with the Verilog front end in internal/hdl:

	tree, err := hdl.Parse("main.v", src)
	res, err := isolate.Module(tree, tree.Module("Main"))
	l, err := hwbind.Load(iface, res, ch, base)
	l.Resync()
	for !done {
		l.Read(clk, bits.FromUint64(1, tick))
		if l.ThereAreUpdates() {
			l.Update()
		} else {
			l.Evaluate()
		}
	}

Every variable that the host needs to observe gets a slot: a range of 32 bits
words in target memory. Slots are allocated in the order variables are first
met: task arguments first, then inputs, outputs and stateful variables as they
are bound. Five control words follow the last slot: live, there_are_updates,
update, sys_task and open_loop.

When the target runs a $display, $write or $finish statement, it sets the
statement's bit in the sys_task word. Evaluate, Update and OpenLoop replay the
flagged statements through a target.Interface, then clear the mask.

*/
package hwbind
