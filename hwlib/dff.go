// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

// DFF is a clocked data flip flop.
//
//	Inputs: clk, in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
const DFF = "DFF"

// Register is a N-bits register with load enable. N defaults to 16.
//
//	Parameters: N
//	Inputs: clk, in[N], load
//	Outputs: out[N]
//	Function: if load(t-1) then out(t) = in(t-1) else out(t) = out(t-1)
//
const Register = "Register"

// Counter is a free running N-bits counter with a single clock input and no
// outputs. It displays its value every time it wraps around and finishes
// after Wraps wrap arounds. N defaults to 4, Wraps to 0 (never finish).
//
//	Parameters: N, Wraps
//	Inputs: clk
//
const Counter = "Counter"

func init() {
	register(DFF, `
module DFF(input clk, in, output reg out);
  always @(posedge clk) out <= in;
endmodule`)
	register(Register, `
module Register #(parameter N = 16) (input clk, input [N-1:0] in, input load, output reg [N-1:0] out);
  always @(posedge clk)
    if (load)
      out <= in;
endmodule`)
	register(Counter, `
module Counter #(parameter N = 4, parameter Wraps = 0) (input clk);
  reg [N-1:0] count = 0;
  integer wraps = 0;
  always @(posedge clk) begin
    count <= count + 1;
    if (count == (1 << N) - 1) begin
      wraps = wraps + 1;
      $display("wrap %d", wraps);
      if (wraps == Wraps)
        $finish(1);
    end
  end
endmodule`)
}
