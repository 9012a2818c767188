/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package clock contains a wrapper around CLOCK_ADJTIME syscall.

Everything goes through the Adjuster interface, implemented by SysClock for
real clocks and by Simulated for tests and dry runs.

Supported methods include
  - reading tick length and frequency offset through ReadTickFreq
  - setting tick length and frequency offset in one call through SetTickFreq
  - stepping the clock forwards or backwards through StepTimeval
  - setting and reading back the maximum error through SetMaxError
  - cancelling a pending adjtime() offset through ResetOffset
  - reading clock state and status bits through ReadStatus
*/
package clock
