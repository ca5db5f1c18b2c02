/*
Package sandbox evaluates compiled component scripts inside an isolated
goja JavaScript runtime.

# Overview

Every Load builds a brand new VM, a fresh module container and a require
function bound to a closed Table of module names. The script runs as the body
of a CommonJS wrapper:

	(function (require, module, exports) { ... })

and whatever it leaves on module.exports.default becomes the Export.

# Isolation

The table restricts symbolic imports: any name outside it throws
`Module "<name>" is not available`. The VM itself exposes only the ECMAScript
builtins plus console, alert and inert timers; there is no filesystem, network
or process access. This is still not a hardened boundary. There is no heap
limit, only a call stack cap and a wall clock interrupt.

# Lifetime

The Export keeps the VM alive because rendering calls back into user code.
Callers must Close it once rendering is done; Close also stops the interrupt
watcher.
*/
package sandbox
